package eta

// Estimate is the reconciled answer for one (route, stop) pair.
// Nil fields mean unknown and are rendered as JSON null.
type Estimate struct {
	RealTime  *int    `json:"realTime"`
	Scheduled *int    `json:"scheduled"`
	Best      *int    `json:"best"`
	Source    *Source `json:"source"`
}

// Reconcile chooses between a live and a scheduled estimate. The live value
// wins unless it exceeds scheduled*tolerance.
func Reconcile(realTime, scheduled *int, tolerance float64) Estimate {
	est := Estimate{RealTime: realTime, Scheduled: scheduled}

	switch {
	case realTime != nil && scheduled != nil:
		if float64(*realTime) > float64(*scheduled)*tolerance {
			est.Best, est.Source = scheduled, sourcePtr(SourceScheduled)
		} else {
			est.Best, est.Source = realTime, sourcePtr(SourceRealTime)
		}
	case realTime != nil:
		est.Best, est.Source = realTime, sourcePtr(SourceRealTime)
	case scheduled != nil:
		est.Best, est.Source = scheduled, sourcePtr(SourceScheduled)
	}

	return est
}

func sourcePtr(s Source) *Source {
	return &s
}
