package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/sessionhandoff/handoff"
	"github.com/BaSui01/sessionhandoff/testutil"
	"github.com/BaSui01/sessionhandoff/types"
)

func quietEnv(t *testing.T) {
	t.Setenv("HANDOFF_LOG_LEVEL", "error")
	t.Setenv("HANDOFF_LOG_OUTPUT_PATHS", "stderr")
}

func TestRunOnce_DryRun(t *testing.T) {
	quietEnv(t)
	var out bytes.Buffer
	err := runOnce([]string{"--dry-run", "--type", "planning", "please", "outline", "the", "<cache> layer"}, &out)
	require.NoError(t, err)

	var got dryRunPlan
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, handoff.CategoryPlanning, got.Category)
	assert.Equal(t, "Plan: Outline the <cache> layer", got.Title)
	assert.Equal(t, handoff.BuildSystemPrompt(handoff.CategoryPlanning), got.SystemPrompt)
	assert.Contains(t, got.UserPrompt, "please outline the <cache> layer")
	assert.Contains(t, out.String(), "<cache>", "HTML is not escaped")
}

func TestRunOnce_DryRunClassifies(t *testing.T) {
	quietEnv(t)
	var out bytes.Buffer
	require.NoError(t, runOnce([]string{"--dry-run", "--goal", "investigate why the sweep is slow"}, &out))

	var got dryRunPlan
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, handoff.CategoryResearch, got.Category)
	assert.Equal(t, "Investigate why the sweep is slow", got.Title)
}

func TestRunOnce_InvalidInput(t *testing.T) {
	quietEnv(t)
	var out bytes.Buffer

	err := runOnce([]string{"--dry-run", "--goal", "   "}, &out)
	testutil.AssertErrorCode(t, err, types.ErrInvalidInput)

	err = runOnce([]string{"--dry-run", "--type", "bogus", "do it"}, &out)
	testutil.AssertErrorCode(t, err, types.ErrInvalidInput)

	assert.Error(t, runOnce([]string{"--no-such-flag"}, &out))
	assert.Zero(t, out.Len())
}

func TestRunOnce_AgainstHost(t *testing.T) {
	quietEnv(t)
	fake := newFakeHost(t)
	t.Setenv("HANDOFF_HOST_BASE_URL", fake.URL)
	t.Setenv("HANDOFF_HANDOFF_NOTIFY_DELAY", "0s")

	var out bytes.Buffer
	require.NoError(t, runOnce([]string{"--session", "ses_parent", "--goal", "implement retries"}, &out))

	var got handoff.HandoffResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "ses_child", got.NewSessionID)
	assert.Equal(t, handoff.CategoryImpl, got.Category)
	assert.Equal(t, fakeAnalysis, got.Prompt)
	assert.False(t, got.Delivered)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.created, 1)
	assert.Equal(t, "ses_parent", fake.created[0]["parentID"])
}

func TestRunOnce_HostUnavailable(t *testing.T) {
	quietEnv(t)
	fake := newFakeHost(t)
	fake.Close()
	t.Setenv("HANDOFF_HOST_BASE_URL", fake.URL)

	err := runOnce([]string{"--session", "ses_parent", "implement retries"}, &bytes.Buffer{})
	testutil.AssertErrorCode(t, err, types.ErrAnalysisFailed)
}
