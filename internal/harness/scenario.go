package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ternlang/tern/internal/query"
)

// Scenario defines a conformance test scenario: a manifest directory,
// a sequence of queries to run against it, and the expected outcome
// of each.
type Scenario struct {
	// Name uniquely identifies this scenario; also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ManifestDir is the manifest directory, relative to the scenario
	// file unless absolute.
	ManifestDir string `yaml:"manifest_dir"`

	// Queries is the ordered list of queries to evaluate.
	Queries []QueryStep `yaml:"queries"`

	// MaxDepth overrides the engine's stack depth limit when > 0.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// SessionToken is the fixed token for deterministic golden
	// comparison. Defaults to "session-test".
	SessionToken string `yaml:"session_token,omitempty"`
}

// QueryStep is one query evaluation in the scenario.
type QueryStep struct {
	// Query is the kind's wire name, e.g. "type_of".
	Query string `yaml:"query"`

	// Def references the key: either a definition path declared in the
	// manifest ("core::Vec") or a raw "crate:index" id. Raw ids may
	// reference crates outside the manifest, which is how unsupported
	// dispatch is exercised.
	Def string `yaml:"def"`

	// Expect validates the outcome. Nil means "must succeed", with no
	// check on the value.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause is the expected outcome of one step. Exactly one of
// Value and Error is set.
type ExpectClause struct {
	// Value is the expected rendered value.
	Value string `yaml:"value,omitempty"`

	// Error is the expected failure code (CYCLE_DETECTED,
	// UNSUPPORTED_QUERY, DEPTH_EXCEEDED, PURITY_VIOLATION).
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and validates a scenario YAML file. The manifest
// path is resolved relative to the scenario file's directory.
// Unknown YAML fields are rejected, which catches typos like
// "querys:" early.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ManifestDir != "" && !filepath.IsAbs(scenario.ManifestDir) {
		scenario.ManifestDir = filepath.Join(filepath.Dir(path), scenario.ManifestDir)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.ManifestDir == "" {
		return fmt.Errorf("manifest_dir is required")
	}
	if info, err := os.Stat(s.ManifestDir); err != nil || !info.IsDir() {
		return fmt.Errorf("manifest_dir not found: %s", s.ManifestDir)
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, step := range s.Queries {
		if step.Query == "" {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		if _, ok := query.KindFromString(step.Query); !ok {
			return fmt.Errorf("queries[%d]: unknown query kind %q", i, step.Query)
		}
		if step.Def == "" {
			return fmt.Errorf("queries[%d]: def is required", i)
		}
		if step.Expect != nil {
			if step.Expect.Value != "" && step.Expect.Error != "" {
				return fmt.Errorf("queries[%d].expect: value and error are mutually exclusive", i)
			}
			if step.Expect.Value == "" && step.Expect.Error == "" {
				return fmt.Errorf("queries[%d].expect: one of value or error is required", i)
			}
		}
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	return nil
}
