// Package condition evaluates dialogue gates: an AND of ORs of negatable
// predicates answered by external evaluators (quest log, inventory, ...).
package condition

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// Evaluator answers predicate queries about domain state.
// ok is false when the evaluator does not recognize the predicate type.
// Implementations must be free of side effects.
type Evaluator interface {
	CheckCondition(p types.PredicateType, params []string) (result bool, ok bool)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(p types.PredicateType, params []string) (bool, bool)

// CheckCondition calls f.
func (f EvaluatorFunc) CheckCondition(p types.PredicateType, params []string) (bool, bool) {
	return f(p, params)
}

// ErrPredicateOwned is returned when a predicate type is registered twice.
var ErrPredicateOwned = errors.New("condition: predicate type already has an owner")

// Registry routes each predicate type to a single authoritative evaluator.
// Evaluators added without explicit types are asked in order for any type
// that has no owner; the first to recognize it answers.
type Registry struct {
	owners   map[types.PredicateType]Evaluator
	fallback []Evaluator
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		owners: map[types.PredicateType]Evaluator{},
		logger: logger,
	}
}

// Register makes ev the owner of the given predicate types.
func (r *Registry) Register(ev Evaluator, kinds ...types.PredicateType) error {
	for _, k := range kinds {
		if _, exists := r.owners[k]; exists {
			return fmt.Errorf("%w: %s", ErrPredicateOwned, k)
		}
	}
	for _, k := range kinds {
		r.owners[k] = ev
	}
	return nil
}

// Add appends an evaluator consulted for predicate types without an owner.
func (r *Registry) Add(ev Evaluator) {
	r.fallback = append(r.fallback, ev)
}

// Check returns the authoritative answer for a predicate query.
// ok is false when nobody recognizes the type.
func (r *Registry) Check(p types.PredicateType, params []string) (result bool, ok bool) {
	if r == nil {
		return false, false
	}
	if ev, owned := r.owners[p]; owned {
		return r.safeCheck(ev, p, params)
	}
	for _, ev := range r.fallback {
		if result, ok := r.safeCheck(ev, p, params); ok {
			return result, true
		}
	}
	return false, false
}

// safeCheck treats a panicking evaluator as not applicable.
func (r *Registry) safeCheck(ev Evaluator, p types.PredicateType, params []string) (result bool, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("predicate evaluator panicked", "predicate", string(p), "params", params, "panic", rec)
			result, ok = false, false
		}
	}()
	return ev.CheckCondition(p, params)
}

// EvalPredicate reports whether a single predicate is satisfied.
// A predicate nobody can answer is satisfied.
func EvalPredicate(p types.Predicate, reg *Registry) bool {
	result, ok := reg.Check(p.Type, p.Parameters)
	if !ok {
		return true
	}
	return result != p.Negate
}

// EvalDisjunction returns true if any predicate passes. An empty
// disjunction is false.
func EvalDisjunction(d types.Disjunction, reg *Registry) bool {
	for _, p := range d.Or {
		if EvalPredicate(p, reg) {
			return true
		}
	}
	return false
}

// EvalCondition returns true if every disjunction passes (AND logic).
// An empty condition is vacuously true.
func EvalCondition(c types.Condition, reg *Registry) bool {
	for _, d := range c.And {
		if !EvalDisjunction(d, reg) {
			return false
		}
	}
	return true
}
