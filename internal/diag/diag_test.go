package diag

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Cycle(t *testing.T) {
	report := Report{
		Code:    "CYCLE_DETECTED",
		Kind:    "type_of",
		Key:     "0:1",
		Message: "cyclic dependency computing type_of(0:1)",
		Chain:   []string{"type_of(0:1)", "generics_of(0:1)"},
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "render_cycle", []byte(Render(report)))
}

func TestRender_Unsupported(t *testing.T) {
	report := Report{
		Code:    "UNSUPPORTED_QUERY",
		Kind:    "type_of",
		Key:     "1:3",
		Message: "type_of(1:3) unsupported by its crate",
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "render_unsupported", []byte(Render(report)))
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	sink := NewSlogSink(logger)
	sink.Report(Report{
		Code:    "CYCLE_DETECTED",
		Kind:    "type_of",
		Key:     "0:1",
		Message: "cyclic dependency computing type_of(0:1)",
		Chain:   []string{"type_of(0:1)", "type_of(0:2)"},
	})

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "code=CYCLE_DETECTED")
	assert.Contains(t, out, "query=type_of")
	assert.Contains(t, out, "type_of(0:1) -> type_of(0:2)")
}

func TestRecordingSink(t *testing.T) {
	sink := &RecordingSink{}
	sink.Report(Report{Code: "UNSUPPORTED_QUERY", Key: "1:3"})
	sink.Report(Report{Code: "CYCLE_DETECTED", Key: "0:1"})

	require.Len(t, sink.Reports, 2)
	assert.Equal(t, "UNSUPPORTED_QUERY", sink.Reports[0].Code)
	assert.Equal(t, "CYCLE_DETECTED", sink.Reports[1].Code)
}
