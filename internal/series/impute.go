package series

import (
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// ImputeReport counts what ClassifyAndImpute changed, per metric.
type ImputeReport struct {
	ProxyMissing map[string]int // zeros reclassified as missing
	Interpolated map[string]int // missing values filled
	Unfilled     map[string]int // missing values left at the window edges
}

func newImputeReport() ImputeReport {
	return ImputeReport{
		ProxyMissing: make(map[string]int),
		Interpolated: make(map[string]int),
		Unfilled:     make(map[string]int),
	}
}

// Totals sums each counter across metrics.
func (r ImputeReport) Totals() (proxy, interpolated, unfilled int) {
	for _, n := range r.ProxyMissing {
		proxy += n
	}
	for _, n := range r.Interpolated {
		interpolated += n
	}
	for _, n := range r.Unfilled {
		unfilled += n
	}
	return proxy, interpolated, unfilled
}

// ClassifyAndImpute treats zeros as missing wherever the metric has a
// positive value elsewhere in the window, then fills interior gaps by linear
// interpolation. Leading and trailing gaps stay missing. w is not modified.
func ClassifyAndImpute(w types.DensifiedWindow, metrics []string) (types.DensifiedWindow, ImputeReport) {
	schema := make([]types.MetricSchema, len(metrics))
	for i, m := range metrics {
		schema[i] = types.MetricSchema{Name: m}
	}
	return Impute(w, schema)
}

// Impute is ClassifyAndImpute driven by metric schemas, so a metric can opt
// out of zero reclassification and only be interpolated.
func Impute(w types.DensifiedWindow, metrics []types.MetricSchema) (types.DensifiedWindow, ImputeReport) {
	out := w.Clone()
	report := newImputeReport()

	for _, m := range metrics {
		vals := out.Series(m.Name)
		if m.ReclassifiesZeros() && hasPositive(vals) {
			for i, v := range vals {
				if v == 0 {
					vals[i] = types.Missing()
					report.ProxyMissing[m.Name]++
				}
			}
		}

		report.Interpolated[m.Name] = interpolate(vals)
		for _, v := range vals {
			if types.IsMissing(v) {
				report.Unfilled[m.Name]++
			}
		}
		for i := range out.Rows {
			out.Rows[i].Values[m.Name] = vals[i]
		}
	}
	return out, report
}

func hasPositive(vals []float64) bool {
	for _, v := range vals {
		if v > 0 {
			return true
		}
	}
	return false
}

// interpolate fills missing runs bounded by present values on both sides,
// in place, and returns how many values it filled.
func interpolate(vals []float64) int {
	filled := 0
	prev := -1
	for i, v := range vals {
		if types.IsMissing(v) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			lo, hi := vals[prev], v
			span := float64(i - prev)
			for k := prev + 1; k < i; k++ {
				vals[k] = lo + (hi-lo)*float64(k-prev)/span
				filled++
			}
		}
		prev = i
	}
	return filled
}
