package separator

import "github.com/abctsp/abctsp/cutrepr"

// safeGMISeparator extracts numerically-safe Gomory mixed-integer cuts
// from the optimal simplex tableau (spec.md §4.3 step 9), active only when
// edge pricing is not running. Unlike every other separator, a GMI row is
// accepted if it is tight OR strictly feasible at the tour (spec.md:
// "each returned SparseRow is rejected unless it is tight or strictly
// feasible at the tour") — GMI rows may legitimately not bind at an
// integral tour while still being valid.
type safeGMISeparator struct{}

func (s *safeGMISeparator) Kind() Kind { return SafeGMI }

func (s *safeGMISeparator) FindCuts(in Input) (*CutQueue, error) {
	q := NewCutQueue(0)
	if in.GMI == nil {
		return q, nil
	}
	eps := in.Cfg.Eps
	if eps <= 0 {
		eps = ViolationEps
	}
	xt := tourVector(in.Graph, in.Tour)

	rows, err := in.GMI.FractionalBasicRows()
	if err != nil {
		return q, err
	}
	for _, r := range rows {
		if !r.IsViolated(in.X, eps) {
			continue
		}
		tight := r.IsTightAtTour(xt, eps)
		feasible := r.Activity(xt) <= r.RHS+eps
		if r.Sense == cutrepr.GE {
			feasible = r.Activity(xt) >= r.RHS-eps
		}
		if !tight && !feasible {
			continue
		}
		_ = q.PushBack(r)
	}
	return q, nil
}
