// Package harness runs conformance scenarios against the real driver
// and engine.
//
// A scenario loads a manifest, evaluates a fixed query sequence, and
// records everything observable: step outcomes, every provider
// invocation, every diagnostic report. The recording doubles as the
// golden trace - the engine's memoization and dispatch behavior is
// visible in which provider invocations do and do not appear.
package harness

import (
	"fmt"
	"strings"

	"github.com/ternlang/tern/internal/diag"
	"github.com/ternlang/tern/internal/driver"
	"github.com/ternlang/tern/internal/manifest"
	"github.com/ternlang/tern/internal/query"
	"github.com/ternlang/tern/internal/sema"
)

// StepOutcome is the recorded outcome of one scenario step.
type StepOutcome struct {
	Query    string `json:"query"`
	Def      string `json:"def"`
	Path     string `json:"path,omitempty"`
	Value    string `json:"value,omitempty"`
	Error    string `json:"error,omitempty"`
	Passed   bool   `json:"passed"`
	Mismatch string `json:"mismatch,omitempty"`
}

// Invocation is one observed provider execution, in order.
type Invocation struct {
	Query string `json:"query"`
	Def   string `json:"def"`
}

// Result is the full recording of one scenario run.
type Result struct {
	Scenario     string        `json:"scenario"`
	SessionToken string        `json:"session_token"`
	ManifestHash string        `json:"manifest_hash"`
	Steps        []StepOutcome `json:"steps"`
	Invocations  []Invocation  `json:"invocations"`
	Diagnostics  []diag.Report `json:"diagnostics,omitempty"`
	Passed       bool          `json:"passed"`
}

// Run executes a scenario against a fresh session.
//
// Determinism: the session token is fixed by the scenario, the query
// order is the scenario's, and provider invocations are recorded in
// execution order, so two runs of the same scenario produce identical
// Results.
func Run(scenario *Scenario) (*Result, error) {
	m, err := manifest.LoadDir(scenario.ManifestDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	token := scenario.SessionToken
	if token == "" {
		token = "session-test"
	}

	result := &Result{
		Scenario:     scenario.Name,
		SessionToken: token,
		ManifestHash: m.Hash,
		Passed:       true,
	}

	sink := &diag.RecordingSink{}
	opts := []driver.Option{
		driver.WithSink(sink),
		driver.WithTokenGenerator(query.NewFixedGenerator(token)),
		driver.WithInvocationHook(func(kind query.Kind, key sema.DefID) {
			result.Invocations = append(result.Invocations, Invocation{
				Query: kind.String(),
				Def:   key.String(),
			})
		}),
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, driver.WithMaxDepth(scenario.MaxDepth))
	}

	session, err := driver.New(m, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble session: %w", err)
	}

	for i, step := range scenario.Queries {
		outcome, err := runStep(session, step)
		if err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		result.Steps = append(result.Steps, outcome)
		if !outcome.Passed {
			result.Passed = false
		}
	}

	result.Diagnostics = sink.Reports

	return result, nil
}

func runStep(session *driver.Session, step QueryStep) (StepOutcome, error) {
	kind, ok := query.KindFromString(step.Query)
	if !ok {
		return StepOutcome{}, fmt.Errorf("unknown query kind %q", step.Query)
	}

	def, err := resolveDef(session.Manifest, step.Def)
	if err != nil {
		return StepOutcome{}, err
	}

	res := session.Run(kind, def)

	outcome := StepOutcome{
		Query: step.Query,
		Def:   def.String(),
		Path:  res.Path,
		Value: res.Rendered,
	}
	if res.Err != nil {
		outcome.Error = errorCode(res.Err)
	}

	outcome.Passed, outcome.Mismatch = checkExpect(step.Expect, res)
	return outcome, nil
}

// resolveDef turns a step's def reference into an id: a manifest path
// if it resolves, else a raw "crate:index" form.
func resolveDef(m *manifest.Manifest, ref string) (sema.DefID, error) {
	if def, ok := m.DefByPath(ref); ok {
		return def.ID, nil
	}
	id, err := sema.ParseDefID(ref)
	if err != nil {
		return sema.DefID{}, fmt.Errorf("def %q is neither a manifest path nor a def id", ref)
	}
	return id, nil
}

func checkExpect(expect *ExpectClause, res driver.Result) (bool, string) {
	if expect == nil {
		if res.Err != nil {
			return false, fmt.Sprintf("unexpected error: %v", res.Err)
		}
		return true, ""
	}

	if expect.Error != "" {
		if res.Err == nil {
			return false, fmt.Sprintf("expected error %s, got value %q", expect.Error, res.Rendered)
		}
		if code := errorCode(res.Err); code != expect.Error {
			return false, fmt.Sprintf("expected error %s, got %s", expect.Error, code)
		}
		return true, ""
	}

	if res.Err != nil {
		return false, fmt.Sprintf("expected value %q, got error: %v", expect.Value, res.Err)
	}
	if res.Rendered != expect.Value {
		return false, fmt.Sprintf("expected value %q, got %q", expect.Value, res.Rendered)
	}
	return true, ""
}

// errorCode reduces an error to its comparison form: the QueryError
// code when there is one, otherwise the message.
func errorCode(err error) string {
	for _, code := range []struct {
		check func(error) bool
		code  query.QueryErrorCode
	}{
		{query.IsCycleError, query.ErrCodeCycle},
		{query.IsUnsupportedError, query.ErrCodeUnsupported},
		{query.IsPurityError, query.ErrCodePurity},
		{query.IsDepthError, query.ErrCodeDepth},
	} {
		if code.check(err) {
			return string(code.code)
		}
	}
	return strings.TrimSpace(err.Error())
}
