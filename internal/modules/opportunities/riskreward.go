package opportunities

import "math"

// RiskRewardRatio derives abs(upside/downside) from the record's estimates.
// The ratio is undefined (ok=false) when either estimate is absent or the
// downside is zero. Undefined is a first-class outcome: it is not an error,
// not infinity, and must never be conflated with a zero ratio.
func RiskRewardRatio(r Record) (ratio float64, ok bool) {
	if r.EstimatedUpside == nil || r.EstimatedDownside == nil {
		return 0, false
	}
	if *r.EstimatedDownside == 0 {
		return 0, false
	}
	return math.Abs(*r.EstimatedUpside / *r.EstimatedDownside), true
}
