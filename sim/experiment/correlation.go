package experiment

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/teamsim/sim"
)

// Column name prefixes of Correlation.Name.
const (
	UnitColumnPrefix   = "unit:"
	ConfigColumnPrefix = "cfg:"
)

// Correlation is the Pearson correlation of one input column against a stat.
type Correlation struct {
	Name string  `json:"name"` // "unit:<key>" or "cfg:<dotted path>"
	R    float64 `json:"r"`
	N    int     `json:"n"`
}

// Correlations correlates every unit variable and numeric config field of
// points against the named stat, strongest first. Columns that are constant
// (undefined correlation) are omitted.
func Correlations(points []ScatterPoint, statName string) ([]Correlation, error) {
	if _, ok := (sim.Stats{}).Lookup(statName); !ok {
		return nil, fmt.Errorf("unknown stat %q", statName)
	}
	if len(points) < 2 {
		return nil, nil
	}

	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i], _ = p.Stats.Lookup(statName)
	}

	columns := make(map[string][]float64)
	for i, p := range points {
		for k, v := range p.UnitVars {
			col(columns, UnitColumnPrefix+k, len(points))[i] = v
		}
		for k, v := range p.Config {
			col(columns, ConfigColumnPrefix+k, len(points))[i] = v
		}
	}

	var out []Correlation
	for name, xs := range columns {
		r := stat.Correlation(xs, ys, nil)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, Correlation{Name: name, R: r, N: len(xs)})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].R), math.Abs(out[j].R)
		if ai != aj {
			return ai > aj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func col(columns map[string][]float64, name string, n int) []float64 {
	c, ok := columns[name]
	if !ok {
		c = make([]float64, n)
		columns[name] = c
	}
	return c
}
