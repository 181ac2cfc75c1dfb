package element

import (
	"strconv"
	"sync/atomic"

	"sketchflow/internal/skeleton"
)

// batchSeq is process-wide. Identifiers only need to be unique within one
// user's active scene, so a racy gap in the sequence is harmless.
var batchSeq atomic.Uint64

// NextBatchPrefix allocates the identifier prefix for one generation batch.
func NextBatchPrefix() string {
	return "b" + strconv.FormatUint(batchSeq.Add(1), 10) + "-"
}

// NamespaceBatch rewrites every model-invented identifier in the batch to
// prefix+id, and rewrites start/end references through the same mapping,
// so layering many batches onto one scene cannot collide. References that
// do not resolve inside the batch are left untouched; they will simply
// fail to bind later. Callers must skip this step for replace and modify
// actions, where identifier stability is required for reconciliation.
func NamespaceBatch(batch []skeleton.Skeleton, prefix string) []skeleton.Skeleton {
	renamed := make(map[string]string, len(batch))
	for _, sk := range batch {
		if sk.ID != "" {
			renamed[sk.ID] = prefix + sk.ID
		}
	}

	out := make([]skeleton.Skeleton, len(batch))
	for i, sk := range batch {
		if sk.ID != "" {
			sk.ID = renamed[sk.ID]
		}
		sk.Start = renameRef(sk.Start, renamed)
		sk.End = renameRef(sk.End, renamed)
		out[i] = sk
	}
	return out
}

func renameRef(ref *skeleton.Ref, renamed map[string]string) *skeleton.Ref {
	if ref == nil {
		return nil
	}
	r := *ref
	if to, ok := renamed[r.ID]; ok {
		r.ID = to
	}
	return &r
}
