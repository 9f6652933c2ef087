package histogram

// CompareOp names a comparison direction for Selectivity, mirroring the
// small set table-stats-style selectivity estimation needs.
type CompareOp int

const (
	LessThan CompareOp = iota
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	EqualTo
)

// Selectivity estimates the fraction of an axis's filled mass that lies on
// one side of thresholdBin, after marginalizing out every other axis via
// ReduceTo. It is deliberately expressed in terms of an internal bin index
// rather than a raw value: axis.Axis.Update mutates growable axes as a side
// effect, so a value-taking overload would risk silently growing the axis
// during a read-only query. Callers who need selectivity for a raw value
// should classify it against the axis themselves (e.g. by inspecting a
// Regular/Integer axis's own Low/High bounds) to get a bin index first.
func (h *Histogram) Selectivity(axisIndex int, op CompareOp, thresholdBin int) (float64, error) {
	if axisIndex < 0 || axisIndex >= len(h.axes) {
		return 0, HistError{OutOfRange, "axis index out of range"}
	}
	marginal, err := h.ReduceTo(axisIndex)
	if err != nil {
		return 0, err
	}
	n := h.extents[axisIndex]
	var total, matched float64
	for j := 0; j < n; j++ {
		v, _, err := marginal.At(j)
		if err != nil {
			return 0, err
		}
		total += v
		if binSatisfies(j, op, thresholdBin) {
			matched += v
		}
	}
	if total == 0 {
		return 0, nil
	}
	return matched / total, nil
}

func binSatisfies(bin int, op CompareOp, threshold int) bool {
	switch op {
	case LessThan:
		return bin < threshold
	case LessThanOrEqual:
		return bin <= threshold
	case GreaterThan:
		return bin > threshold
	case GreaterThanOrEqual:
		return bin >= threshold
	case EqualTo:
		return bin == threshold
	default:
		return false
	}
}
