package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"courseware-hq/steward/pkg/export"
	"courseware-hq/steward/pkg/orchestrator"
)

func runWithSkip() *orchestrator.RunReport {
	return &orchestrator.RunReport{
		ID:        "run-9",
		Mode:      orchestrator.ModeCommit,
		Completed: true,
		Tasks:     []*orchestrator.TaskResult{{Task: orchestrator.TaskAutoApprove, Processed: 1, Skipped: 1}},
		Entries: []orchestrator.Entry{
			{Task: orchestrator.TaskAutoApprove, EntityID: 4, Action: "skip", Reason: "missing cover"},
		},
	}
}

func TestNewOutput(t *testing.T) {
	out, err := NewOutput(nil, "", false)
	if err != nil {
		t.Fatalf("NewOutput() failed: %v", err)
	}
	if out.Format() != export.FormatTable {
		t.Errorf("Format() = %s, want table", out.Format())
	}

	_, err = NewOutput(nil, "yaml", false)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "format" {
		t.Errorf("NewOutput(yaml) error = %v, want ConfigError on format", err)
	}
}

func TestOutput_Render(t *testing.T) {
	var buf bytes.Buffer
	out, _ := NewOutput(&buf, "json", false)
	if err := out.Render(runWithSkip()); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["id"] != "run-9" {
		t.Errorf("id = %v", decoded["id"])
	}
}

func TestOutput_VerboseTable(t *testing.T) {
	var quiet, verbose bytes.Buffer

	q, _ := NewOutput(&quiet, "table", false)
	v, _ := NewOutput(&verbose, "table", true)
	if err := q.Render(runWithSkip()); err != nil {
		t.Fatal(err)
	}
	if err := v.Render(runWithSkip()); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(quiet.String(), "missing cover") {
		t.Error("quiet table shows skip entries")
	}
	if !strings.Contains(verbose.String(), "missing cover") {
		t.Error("verbose table hides skip entries")
	}
}
