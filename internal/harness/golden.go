package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares the full recording
// against testdata/golden/{scenario.Name}.golden.
//
// Regenerate with:
//
//	go test ./internal/harness -update
//
// The golden file is the source of truth for the scenario's complete
// observable behavior, including which provider invocations the
// memoization layer did and did not allow through.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("scenario %s: marshal result: %v", scenario.Name, err)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, scenario.Name, data)

	return result
}
