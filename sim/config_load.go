package sim

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// legacyKeyPaths maps deprecated flat configuration keys to their nested paths.
var legacyKeyPaths = map[string]string{
	"numTaskTypes":             "environment.numTopics",
	"envTaskRate":              "environment.newTaskRate",
	"avgValue":                 "environment.valueMean",
	"taskRetentionMin":         "environment.retentionMin",
	"taskRetentionMax":         "environment.retentionMax",
	"avgInfoTime":              "environment.meanInfoEffort",
	"avgImplTime":              "environment.meanImplEffort",
	"avgTotalEffort":           "environment.totalEffort",
	"backlogSize":              "backlog.initialSize",
	"maxBacklogSize":           "backlog.maxSize",
	"numWorkers":               "team.size",
	"absenceProb":              "team.absenceProbability",
	"askProb":                  "behavior.askProbability",
	"askMinGain":               "behavior.askMinimumGain",
	"researchLearningRate":     "behavior.researchLearningRate",
	"conversationLearningRate": "behavior.conversationLearningRate",
	"completionLearningRate":   "behavior.completionLearningRate",
	"knowledgeDecayRate":       "behavior.forgetfulnessRate",
	"poWindowSize":             "productOwner.windowSize",
	"poActionsPerCycle":        "productOwner.actionsPerCycle",
	"poErrorProb":              "productOwner.errorProbability",
	"poAbsenceProb":            "productOwner.absenceProbability",
	"turnoverProbability":      "turnover.probability",
	"turnoverHireMode":         "turnover.hireMode",
	"hireAvgFactor":            "turnover.hireAvgFactor",
	"numCycles":                "simulation.numCycles",
	"burnInCycles":             "simulation.burnInCycles",
	"replicates":               "simulation.replicates",
	"beliefInitMax":            "belief.initMax",
}

// LegacyKeyPath returns the nested path for a deprecated flat key.
func LegacyKeyPath(key string) (string, bool) {
	p, ok := legacyKeyPaths[key]
	return p, ok
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML on top of DefaultConfig, so omitted keys keep
// their defaults. Uses strict parsing: unrecognized keys (typos) are rejected.
// Deprecated flat keys are translated to nested paths with a warning.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	legacy := UpgradeLegacyKeys(raw)

	if len(raw) > 0 {
		rest, err := yaml.Marshal(raw)
		if err != nil {
			return Config{}, err
		}
		decoder := yaml.NewDecoder(bytes.NewReader(rest))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, err
		}
	}

	paths := make([]string, 0, len(legacy))
	for p := range legacy {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := cfg.SetPathValue(p, legacy[p]); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// UpgradeLegacyKeys removes deprecated flat keys from raw and returns their
// values keyed by nested path. Emits logrus.Warn deprecation notices.
func UpgradeLegacyKeys(raw map[string]any) map[string]any {
	out := make(map[string]any)
	for key, val := range raw {
		path, ok := legacyKeyPaths[key]
		if !ok {
			continue
		}
		logrus.Warnf("deprecated config key %q auto-mapped to %q; update your config to the nested layout", key, path)
		out[path] = val
		delete(raw, key)
	}
	return out
}
