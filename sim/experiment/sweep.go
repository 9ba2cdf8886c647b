package experiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/teamsim/sim"
)

// PresetParamPrefix marks a sweep parameter that selects presets of one group,
// e.g. "preset:poMaturity".
const PresetParamPrefix = "preset:"

// enumValues lists the values "*" expands to for enumerated string fields.
var enumValues = map[string][]string{
	"turnover.hireMode": {sim.HireModeAverage, sim.HireModeSpecialist},
}

// Sweep1DRequest sweeps one parameter over Values.
type Sweep1DRequest struct {
	Base       sim.Config
	Selections map[string]string // preset selections applied to every point
	Param      string            // dotted config path or "preset:<group>"
	Values     []string
}

// Sweep2DRequest sweeps XParam within each value of SeriesParam.
type Sweep2DRequest struct {
	Base         sim.Config
	Selections   map[string]string
	XParam       string
	XValues      []string
	SeriesParam  string
	SeriesValues []string
}

// Point1D is one sweep result.
type Point1D struct {
	X     any       `json:"x"`
	Stats sim.Stats `json:"stats"`
}

// Point2D is one 2D sweep result.
type Point2D struct {
	X      any       `json:"x"`
	Series any       `json:"series"`
	Stats  sim.Stats `json:"stats"`
}

// ExpandValues splits a comma-separated value list. A lone "*" expands to
// every non-empty preset of a "preset:<group>" parameter, or every option of
// an enumerated field.
func (r *Runner) ExpandValues(param, text string) ([]string, error) {
	var parts []string
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) != 1 || parts[0] != "*" {
		return parts, nil
	}
	if groupID, ok := strings.CutPrefix(param, PresetParamPrefix); ok {
		g, ok := r.catalog().Group(groupID)
		if !ok {
			return nil, fmt.Errorf("unknown preset group %q", groupID)
		}
		var ids []string
		for _, p := range g.Presets {
			if len(p.Patch) > 0 {
				ids = append(ids, p.ID)
			}
		}
		return ids, nil
	}
	if vals, ok := enumValues[param]; ok {
		return append([]string(nil), vals...), nil
	}
	return nil, fmt.Errorf("parameter %q has no enumerable values for \"*\"", param)
}

// pointConfig builds the effective config of one point: presets (with any
// swept preset groups overriding the base selections), then swept fields.
func pointConfig(cat *Catalog, base sim.Config, selections map[string]string, params, values []string) (sim.Config, []any, error) {
	sel := make(map[string]string, len(selections)+len(params))
	for k, v := range selections {
		sel[k] = v
	}
	for i, p := range params {
		if groupID, ok := strings.CutPrefix(p, PresetParamPrefix); ok {
			sel[groupID] = values[i]
		}
	}
	cfg, err := cat.Apply(base, sel)
	if err != nil {
		return sim.Config{}, nil, err
	}

	xs := make([]any, len(params))
	for i, p := range params {
		if strings.HasPrefix(p, PresetParamPrefix) {
			xs[i] = values[i]
			continue
		}
		x, err := setParam(&cfg, p, values[i])
		if err != nil {
			return sim.Config{}, nil, err
		}
		xs[i] = x
	}
	return cfg, xs, nil
}

// setParam writes a sweep value: numbers go through SetPath, anything else is
// written as a string. Returns the effective value.
func setParam(cfg *sim.Config, path, value string) (any, error) {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if err := cfg.SetPath(path, f); err != nil {
			return nil, err
		}
		v, err := cfg.LookupPath(path)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	if err := cfg.SetPathValue(path, value); err != nil {
		return nil, err
	}
	return value, nil
}

// Sweep1D runs one simulation per value, in value order.
func (r *Runner) Sweep1D(ctx context.Context, req Sweep1DRequest) ([]Point1D, error) {
	if len(req.Values) == 0 {
		return nil, fmt.Errorf("sweep %q: no values", req.Param)
	}
	logrus.Infof("Sweep %s over %d value(s)", req.Param, len(req.Values))
	cat := r.catalog()
	base := pinSeed(req.Base)

	points := make([]Point1D, len(req.Values))
	err := r.runPoints(ctx, len(req.Values), func(i int) error {
		cfg, xs, err := pointConfig(cat, base, req.Selections, []string{req.Param}, []string{req.Values[i]})
		if err != nil {
			return fmt.Errorf("sweep %s=%s: %w", req.Param, req.Values[i], err)
		}
		res, err := runConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("sweep %s=%s: %w", req.Param, req.Values[i], err)
		}
		points[i] = Point1D{X: xs[0], Stats: res.Stats}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Sweep2D runs one simulation per (series, x) pair, series-major.
func (r *Runner) Sweep2D(ctx context.Context, req Sweep2DRequest) ([]Point2D, error) {
	nx, ns := len(req.XValues), len(req.SeriesValues)
	if nx == 0 || ns == 0 {
		return nil, fmt.Errorf("sweep %s x %s: both value lists must be non-empty", req.XParam, req.SeriesParam)
	}
	logrus.Infof("Sweep %s (%d) x %s (%d)", req.XParam, nx, req.SeriesParam, ns)
	cat := r.catalog()
	base := pinSeed(req.Base)

	points := make([]Point2D, nx*ns)
	err := r.runPoints(ctx, len(points), func(i int) error {
		s, x := req.SeriesValues[i/nx], req.XValues[i%nx]
		cfg, vals, err := pointConfig(cat, base, req.Selections,
			[]string{req.SeriesParam, req.XParam}, []string{s, x})
		if err != nil {
			return fmt.Errorf("sweep %s=%s, %s=%s: %w", req.SeriesParam, s, req.XParam, x, err)
		}
		res, err := runConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("sweep %s=%s, %s=%s: %w", req.SeriesParam, s, req.XParam, x, err)
		}
		points[i] = Point2D{X: vals[1], Series: vals[0], Stats: res.Stats}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}
