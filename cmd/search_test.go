package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/store"
)

func newSearchFlagsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "search"}
	f := cmd.Flags()
	f.String("name", "", "")
	f.String("email", "", "")
	f.String("phone", "", "")
	f.Bool("all-phases", false, "")
	f.String("pivot-platform", "", "")
	f.String("pivot-url", "", "")
	f.String("pivot-username", "", "")
	require.NoError(t, f.Parse(args))
	return cmd
}

func TestSearchRequestFromFlags_Phased(t *testing.T) {
	cmd := newSearchFlagsCmd(t, "--name", "Ada", "--phone", "+1 555", "--all-phases")

	req, err := searchRequestFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, model.SearchRequest{Name: "Ada", Phone: "+1 555", RunAllPhases: true}, req)
}

func TestSearchRequestFromFlags_Pivot(t *testing.T) {
	cmd := newSearchFlagsCmd(t, "--name", "Ada",
		"--pivot-platform", "GitHub", "--pivot-url", "https://github.com/ada", "--pivot-username", "ada")

	req, err := searchRequestFromFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, req.PivotProfile)
	assert.Equal(t, "GitHub", req.PivotProfile.Platform)
}

func TestSearchRequestFromFlags_PartialPivot(t *testing.T) {
	cmd := newSearchFlagsCmd(t, "--name", "Ada", "--pivot-platform", "GitHub")

	_, err := searchRequestFromFlags(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")
}

func sampleCLISession() *model.SearchSession {
	name := "Ada Lovelace"
	p := model.NewMergedProfile()
	p.VerifiedName = &name
	return &model.SearchSession{
		SearchID:          "ds_abc_123456",
		Status:            model.SessionStatusComplete,
		CurrentPhase:      1,
		OverallConfidence: 80,
		APIs: map[string]model.APIResult{
			"codeGraph": {APIName: "codeGraph", Status: model.APIStatusSuccess, Confidence: 80, Data: json.RawMessage(`{"x":1}`)},
		},
		MergedProfile:   p,
		PhasesCompleted: []int{1},
	}
}

func TestWriteSession_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSession(&buf, sampleCLISession(), "json"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "ds_abc_123456", out["searchId"])
	assert.Equal(t, "Ada Lovelace", out["mergedProfile"].(map[string]any)["verifiedName"])
}

func TestWriteSession_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSession(&buf, sampleCLISession(), "yaml"))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "ds_abc_123456", out["searchId"])
	assert.Equal(t, 80, out["overallConfidence"])
	assert.NotContains(t, buf.String(), "data:")
}

func TestWriteSession_UnknownFormat(t *testing.T) {
	err := writeSession(&bytes.Buffer{}, sampleCLISession(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestFormatSearchesList(t *testing.T) {
	var buf bytes.Buffer
	formatSearchesList(&buf, []store.SearchSummary{{
		SearchID: "ds_a_000001", Name: "Ada", Status: model.SessionStatusPartial,
		CurrentPhase: 2, OverallConfidence: 61, ExecutionTimeMs: 1500,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "CONFIDENCE")
	assert.Contains(t, lines[2], "ds_a_000001")
	assert.Contains(t, lines[2], "61%")
	assert.Contains(t, lines[2], "1.5s")
	assert.Contains(t, lines[2], " - ")
}
