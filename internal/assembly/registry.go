// Package assembly implements the element registry and the
// build!/setconstants!/update! orchestration pipeline: element records
// flow in as a tagged dictionary, resolve through a dependency fixpoint
// into the top-level object map, then drive every object's three
// phases plus the assembly post-condition invariants (spec.md §3, §6).
package assembly

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aristath/gridsched/internal/problem"
)

// ErrUnresolvedElements is returned when a dependency fixpoint is
// reached with pending elements still unresolved.
var ErrUnresolvedElements = errors.New("unresolved elements")

// ErrDuplicateHandler guards double-registration of the same
// (concept, type) pair — a programmer error, not a data error.
var ErrDuplicateHandler = errors.New("duplicate element handler")

// HandlerKey identifies a registered element handler by the (concept,
// type) pair the element-record grammar keys on (spec.md §6).
type HandlerKey struct {
	Concept string
	Type    string
}

// Handler processes one element against the in-progress top-level and
// low-level object maps. It returns ok=true once the element is fully
// incorporated; on ok=false the element is offered to the handler again
// in the next round, and deps is only reported (as MissingDeps) if the
// element never resolves.
type Handler func(toplevel, lowlevel map[problem.Id]any, el Element) (ok bool, deps []problem.Id)

var (
	registryMu sync.Mutex
	registry   = make(map[HandlerKey]Handler)
)

// Register adds a handler for (concept, type) to the process-wide
// INCLUDEELEMENT-style registry. Intended to be called from package
// init() functions, one per concrete element kind — mirroring the
// source system's startup-time registration convention (spec.md §9
// "Global state").
func Register(concept, typ string, h Handler) {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := HandlerKey{Concept: concept, Type: typ}
	if _, exists := registry[key]; exists {
		panic(fmt.Errorf("%w: %s/%s", ErrDuplicateHandler, concept, typ))
	}
	registry[key] = h
}

func lookup(concept, typ string) (Handler, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	h, ok := registry[HandlerKey{Concept: concept, Type: typ}]
	return h, ok
}

// Element is a tagged dictionary (concept, type, instance, value) — the
// external element-record shape assembly consumes (spec.md §6).
type Element struct {
	Concept  string
	Type     string
	Instance string
	Value    any
}

func (e Element) key() problem.Id { return problem.Id{Concept: e.Concept, Instance: e.Instance} }

// UnresolvedReason explains why one element never resolved after the
// dependency fixpoint: either no handler was registered for its
// (concept, type), or it kept reporting missing dependencies.
type UnresolvedReason struct {
	Element      Element
	MissingDeps  []problem.Id
	NoHandler    bool
}

// unresolvedError carries every pending element's reason, formatted for
// the orchestrator's element-level diagnostics (spec.md §7).
type unresolvedError struct {
	Reasons []UnresolvedReason
}

func (e *unresolvedError) Error() string {
	return fmt.Sprintf("%v: %d element(s) never resolved", ErrUnresolvedElements, len(e.Reasons))
}

func (e *unresolvedError) Unwrap() error { return ErrUnresolvedElements }

// Reasons exposes the per-element failure detail an *unresolvedError
// carries, for callers that want to report it structurally.
func Reasons(err error) []UnresolvedReason {
	var ue *unresolvedError
	if errors.As(err, &ue) {
		return ue.Reasons
	}
	return nil
}

// resolveElements runs a round-based fixpoint (spec.md §9 "Cyclic
// structures") over the supplied elements: each round calls the handler
// of every still-pending element, and elements whose handler returns
// ok=false are retried the next round as long as the round made progress
// (resolved >= 1 element); it fails with
// ErrUnresolvedElements once a round makes no progress.
func resolveElements(toplevel, lowlevel map[problem.Id]any, elements []Element) error {
	pending := make([]Element, len(elements))
	copy(pending, elements)

	for len(pending) > 0 {
		var next []Element
		var reasons []UnresolvedReason
		progressed := false

		for _, el := range pending {
			h, ok := lookup(el.Concept, el.Type)
			if !ok {
				reasons = append(reasons, UnresolvedReason{Element: el, NoHandler: true})
				next = append(next, el)
				continue
			}
			resolved, deps := h(toplevel, lowlevel, el)
			if resolved {
				progressed = true
				continue
			}
			next = append(next, el)
			reasons = append(reasons, UnresolvedReason{Element: el, MissingDeps: deps})
		}

		if !progressed {
			sort.Slice(reasons, func(i, j int) bool {
				return reasons[i].Element.key().String() < reasons[j].Element.key().String()
			})
			return &unresolvedError{Reasons: reasons}
		}
		pending = next
	}
	return nil
}
