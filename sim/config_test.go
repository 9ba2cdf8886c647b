package sim

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_ResolvesUnchanged(t *testing.T) {
	// GIVEN the built-in defaults
	cfg := DefaultConfig()

	// WHEN resolved
	got, err := cfg.Resolved()

	// THEN nothing is replaced or rejected
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("Resolved() changed defaults (-want +got):\n%s", diff)
	}
}

func TestNormalize_InvalidNumericFields_FallBackToDefaults(t *testing.T) {
	d := DefaultConfig()
	tests := []struct {
		name  string
		patch func(c *Config)
		check func(t *testing.T, c Config)
	}{
		{
			name:  "negative probability",
			patch: func(c *Config) { c.Behavior.AskProbability = -0.5 },
			check: func(t *testing.T, c Config) { assert.Equal(t, d.Behavior.AskProbability, c.Behavior.AskProbability) },
		},
		{
			name:  "probability above one",
			patch: func(c *Config) { c.ProductOwner.ErrorProbability = 1.5 },
			check: func(t *testing.T, c Config) {
				assert.Equal(t, d.ProductOwner.ErrorProbability, c.ProductOwner.ErrorProbability)
			},
		},
		{
			name:  "NaN rate",
			patch: func(c *Config) { c.Environment.NewTaskRate = math.NaN() },
			check: func(t *testing.T, c Config) { assert.Equal(t, d.Environment.NewTaskRate, c.Environment.NewTaskRate) },
		},
		{
			name:  "zero window size",
			patch: func(c *Config) { c.ProductOwner.WindowSize = 0 },
			check: func(t *testing.T, c Config) { assert.Equal(t, d.ProductOwner.WindowSize, c.ProductOwner.WindowSize) },
		},
		{
			name:  "zero replicates",
			patch: func(c *Config) { c.Simulation.Replicates = 0 },
			check: func(t *testing.T, c Config) { assert.Equal(t, d.Simulation.Replicates, c.Simulation.Replicates) },
		},
		{
			name: "reversed retention bounds are swapped",
			patch: func(c *Config) {
				c.Environment.RetentionMin, c.Environment.RetentionMax = 0.9, 0.2
			},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, 0.2, c.Environment.RetentionMin)
				assert.Equal(t, 0.9, c.Environment.RetentionMax)
			},
		},
		{
			name:  "zero team size is kept",
			patch: func(c *Config) { c.Team.Size = 0 },
			check: func(t *testing.T, c Config) { assert.Equal(t, 0, c.Team.Size) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.patch(&cfg)
			cfg.Normalize()
			tt.check(t, cfg)
		})
	}
}

func TestValidate_StructuralDefects_ReturnError(t *testing.T) {
	tests := []struct {
		name  string
		patch func(c *Config)
		want  string
	}{
		{"unknown hire mode", func(c *Config) { c.Turnover.HireMode = "lottery" }, "turnover.hireMode"},
		{"unknown trace level", func(c *Config) { c.Simulation.TraceLevel = "verbose" }, "simulation.traceLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.patch(&cfg)
			_, err := cfg.Resolved()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseConfig_PartialYAML_KeepsDefaults(t *testing.T) {
	// GIVEN YAML that sets only two fields
	data := []byte(`
team:
  size: 3
behavior:
  askProbability: 0.7
`)
	// WHEN parsed
	cfg, err := ParseConfig(data)

	// THEN those fields are set and every other field keeps its default
	require.NoError(t, err)
	want := DefaultConfig()
	want.Team.Size = 3
	want.Behavior.AskProbability = 0.7
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("ParseConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfig_UnknownKey_Rejected(t *testing.T) {
	// GIVEN a typo in a nested key
	data := []byte(`
team:
  szie: 3
`)
	_, err := ParseConfig(data)
	assert.Error(t, err, "strict parsing must reject unknown keys")
}

func TestParseConfig_LegacyFlatKeys_Translated(t *testing.T) {
	// GIVEN a config mixing deprecated flat keys and the nested layout
	data := []byte(`
numWorkers: 4
askProb: 0.55
turnoverHireMode: specialist
simulation:
  numCycles: 250
`)
	cfg, err := ParseConfig(data)

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Team.Size)
	assert.Equal(t, 0.55, cfg.Behavior.AskProbability)
	assert.Equal(t, HireModeSpecialist, cfg.Turnover.HireMode)
	assert.Equal(t, 250, cfg.Simulation.NumCycles)
}

func TestParseConfig_Empty_ReturnsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment:\n  numTopics: 4\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Environment.NumTopics)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLegacyKeyPath_TargetsResolve(t *testing.T) {
	// Every legacy key must map onto an existing field
	cfg := DefaultConfig()
	for key, path := range legacyKeyPaths {
		if path == "turnover.hireMode" {
			continue
		}
		_, err := cfg.LookupPath(path)
		assert.NoError(t, err, "legacy key %q -> %q", key, path)
	}
}

func TestSetPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		value   float64
		want    float64
		wantErr bool
	}{
		{"float field", "behavior.askProbability", 0.25, 0.25, false},
		{"int field rounds", "team.size", 4.6, 5, false},
		{"int64 field", "simulation.seed", 7, 7, false},
		{"unknown key", "team.sise", 1, 0, true},
		{"section not field", "team", 1, 0, true},
		{"string field", "turnover.hireMode", 1, 0, true},
		{"NaN rejected", "team.size", math.NaN(), 0, true},
		{"empty path", "", 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.SetPath(tt.path, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got, err := cfg.LookupPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetPathValue_String(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.SetPathValue("turnover.hireMode", HireModeSpecialist))
	assert.Equal(t, HireModeSpecialist, cfg.Turnover.HireMode)

	assert.Error(t, cfg.SetPathValue("team.size", "eight"), "string into int field")
	assert.Error(t, cfg.SetPathValue("team.size", true), "unsupported type")
}

func TestNumericSnapshot_FlattensNumericFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Team.Size = 11

	snap := cfg.NumericSnapshot()

	assert.Equal(t, 11.0, snap["team.size"])
	assert.Equal(t, cfg.Behavior.AskProbability, snap["behavior.askProbability"])
	assert.NotContains(t, snap, "turnover.hireMode")
	assert.NotContains(t, snap, "version")
	assert.Len(t, NumericPaths(), len(snap))
	assert.True(t, IsNumericPath("productOwner.windowSize"))
	assert.False(t, IsNumericPath("simulation.traceLevel"))
}
