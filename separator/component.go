package separator

import (
	"github.com/abctsp/abctsp/cutrepr"
	"github.com/abctsp/abctsp/support"
)

// componentSECSeparator emits one subtour elimination constraint per
// connected component of the support graph whenever the support graph is
// disconnected (spec.md §4.3 step 7): the only pipeline stage the driver
// is required to keep invoking "until connectivity holds" (spec.md §4.4's
// bounded connect_sep loop).
type componentSECSeparator struct{}

func (s *componentSECSeparator) Kind() Kind { return ComponentSEC }

func (s *componentSECSeparator) FindCuts(in Input) (*CutQueue, error) {
	q := NewCutQueue(0)
	if in.Support.Connected {
		return q, nil
	}
	eps := in.Cfg.Eps
	if eps <= 0 {
		eps = ViolationEps
	}
	for _, comp := range support.Components(in.Support) {
		if len(comp) == 0 || len(comp) == in.Support.NodeCount {
			continue
		}
		row, err := edgeSubsetRow(in.Graph, comp, len(comp)-1)
		if err != nil {
			continue
		}
		for _, c := range reconnectionGuard([]*cutrepr.SparseRow{row}, in.X, eps) {
			_ = q.PushBack(c)
		}
	}
	return q, nil
}
