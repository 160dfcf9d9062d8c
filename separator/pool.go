package separator

// poolSeparator re-prices every stored HyperGraph in the CutPool against
// the current x-vector (spec.md §4.3 step 1), enqueueing those now
// violated. This is the pipeline's first stage — the cheapest cuts to
// recover are ones already proven valid in a previous round.
type poolSeparator struct{}

func (s *poolSeparator) Kind() Kind { return PoolReprice }

func (s *poolSeparator) FindCuts(in Input) (*CutQueue, error) {
	q := NewCutQueue(0)
	if in.Pool == nil {
		return q, nil
	}
	eps := in.Cfg.Eps
	if eps <= 0 {
		eps = ViolationEps
	}
	scanCap := in.Cfg.PoolScanCap
	if scanCap <= 0 {
		scanCap = 500
	}
	rows, _, err := in.Pool.Reprice(in.Graph, in.Tour, in.X, eps, scanCap)
	if err != nil {
		return q, err
	}
	for _, r := range rows {
		_ = q.PushBack(r)
	}
	return q, nil
}
