// Package validatorlib implements the Validator CLI's decision logic
// (spec.md §4.5), grounded on original_source's
// raboshka_validator/validator.py, ported field for field including its
// exit-code discipline.
package validatorlib

import "encoding/json"

// InitPredicate decides whether a single worker result is acceptable.
type InitPredicate interface {
	Evaluate(result json.RawMessage) (bool, error)
}

// ComparePredicate decides whether two worker results agree.
type ComparePredicate interface {
	Evaluate(a, b json.RawMessage) (bool, error)
}

// Runtime deserializes an opaque predicate blob into an invocable
// predicate. The broker never inspects call_spec or predicate payloads
// itself (spec.md §9): deserialization and evaluation are delegated to
// a co-deployed script runtime, the same boundary original_source draws
// with cloudpickle.loads on the worker side only. One Runtime serves
// every task; it is not chosen by the task's flavor.
type Runtime interface {
	LoadInitPredicate(blob []byte) (InitPredicate, error)
	LoadComparePredicate(blob []byte) (ComparePredicate, error)
}
