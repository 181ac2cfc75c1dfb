// Package pipeline runs the deterministic path from accumulated model
// text to a reconciled scene: parse, namespace, expand, normalize, merge.
package pipeline

import (
	"sketchflow/internal/element"
	"sketchflow/internal/llm"
	"sketchflow/internal/scene"
	"sketchflow/internal/skeleton"
)

// Generator applies one model response to a scene snapshot.
type Generator struct {
	expander element.Expander
}

// New returns a Generator using the given expansion capability; a nil
// expander selects the built-in one.
func New(exp element.Expander) *Generator {
	if exp == nil {
		exp = element.DefaultExpander{}
	}
	return &Generator{expander: exp}
}

// Outcome is the result of applying one generation batch.
type Outcome struct {
	// Action is the merge policy that was applied.
	Action string
	// RawAction is the model's verbatim action value, for labeling.
	RawAction string
	// Scene is the complete replacement element sequence.
	Scene []*element.Element
	// FramedIDs are the ids the viewport should scroll to.
	FramedIDs []string
	// Batch is the normalized incoming batch, before reconciliation.
	Batch []*element.Element
}

// Apply parses rawText and merges the resulting batch into snapshot.
// Failures are retryable and carry the original prompt; the snapshot is
// never touched on any error path, so a failed response cannot corrupt
// the scene.
func (g *Generator) Apply(snapshot []*element.Element, rawText, prompt string) (Outcome, error) {
	parsed, err := skeleton.Parse(rawText)
	if err != nil {
		return Outcome{}, llm.Retryable(prompt, err)
	}

	skeletons := parsed.Elements
	// Identifiers the model invented are only unique within one response;
	// namespace them before they land next to earlier batches. Replace
	// and modify need stable ids, so they skip this.
	if parsed.Action == skeleton.ActionAdd && len(snapshot) > 0 {
		skeletons = element.NamespaceBatch(skeletons, element.NextBatchPrefix())
	}

	expanded, err := g.expander.Expand(skeletons)
	if err != nil {
		return Outcome{}, llm.Retryable(prompt, err)
	}
	batch := element.NormalizeLinear(expanded)

	next, framed := scene.Reconcile(snapshot, batch, parsed.Action)
	return Outcome{
		Action:    parsed.Action,
		RawAction: parsed.RawAction,
		Scene:     next,
		FramedIDs: framed,
		Batch:     batch,
	}, nil
}
