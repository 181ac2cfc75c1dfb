package skeleton

import (
	"errors"
	"strings"

	"sketchflow/internal/util/jsonutil"
)

// ErrInvalidResponseShape marks model output that could not be coerced
// into an action envelope with a non-empty elements list. It is always
// retryable: the caller resubmits the original prompt unchanged.
var ErrInvalidResponseShape = errors.New("skeleton: model response has no usable elements")

// Result is the structured outcome of parsing one model response.
type Result struct {
	// Action is the merge policy (add, replace, modify).
	Action string
	// RawAction preserves whatever the model actually said, for labeling.
	RawAction string
	Elements  []Skeleton
}

type envelope struct {
	Action   string     `json:"action,omitempty"`
	Elements []Skeleton `json:"elements"`
}

// Parse extracts the diagram envelope from raw accumulated model text.
// It first tries the full text as JSON, then falls back to the greedy
// substring from the first '{' through the last '}' to tolerate prose
// the model wrapped around the object.
func Parse(raw string) (Result, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Result{}, ErrInvalidResponseShape
	}

	env, ok := tryParse(text)
	if !ok {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return Result{}, ErrInvalidResponseShape
		}
		env, ok = tryParse(text[start : end+1])
		if !ok {
			return Result{}, ErrInvalidResponseShape
		}
	}
	if len(env.Elements) == 0 {
		return Result{}, ErrInvalidResponseShape
	}

	rawAction := strings.TrimSpace(env.Action)
	if rawAction == "" {
		rawAction = ActionAdd
	}
	return Result{
		Action:    MergeAction(rawAction),
		RawAction: rawAction,
		Elements:  env.Elements,
	}, nil
}

func tryParse(text string) (envelope, bool) {
	var env envelope
	if err := jsonutil.Unmarshal([]byte(text), &env); err != nil {
		return envelope{}, false
	}
	return env, true
}
