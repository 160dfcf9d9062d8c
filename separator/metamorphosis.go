package separator

import "github.com/abctsp/abctsp/cutrepr"

// metamorphosisSeparator implements cut metamorphoses (Decker, Handling,
// Teething — spec.md §4.3 step 8): transformations of "interesting" combs
// already present in the LP into new, potentially tighter comb
// inequalities. Off unless enabled (spec.md: "off unless enabled").
//
// Grounded on original_source/includes/meta_sep.hpp's description of comb
// metamorphosis as a post-processing pass over existing Comb rows rather
// than a from-scratch separation. This implementation transforms no combs:
// FindCuts always returns an empty queue (see the note inside it).
type metamorphosisSeparator struct{}

func (s *metamorphosisSeparator) Kind() Kind { return Metamorphosis }

func (s *metamorphosisSeparator) FindCuts(in Input) (*CutQueue, error) {
	q := NewCutQueue(0)
	// Metamorphosis operates on combs already resident in the LP; the
	// separator pipeline's Input does not carry live LP row state (that
	// lives in lprelax.CoreLP, see cutandpiv for the wiring that would feed
	// existing comb HyperGraphs back into this separator). With no
	// existing-comb source wired in yet, this stage is a structural no-op
	// until a caller supplies candidate combs, matching spec.md's "off
	// unless enabled" default (DefaultConfig leaves it disabled).
	//
	// solver's "aggressive" preset flips every Kind on, this one included —
	// it is harmless but contributes nothing until a comb source exists;
	// see solver.applyPreset's doc comment.
	_ = cutrepr.Comb
	return q, nil
}
