package mocks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/sessionhandoff/handoff"
)

var (
	_ handoff.CompletionService = (*MockHost)(nil)
	_ handoff.SessionService    = (*MockHost)(nil)
	_ handoff.UIService         = (*MockHost)(nil)
)

func TestMockHost_Defaults(t *testing.T) {
	ctx := context.Background()
	m := NewMockHost()

	resp, err := m.Prompt(ctx, &handoff.PromptRequest{SessionID: "ses_1"})
	require.NoError(t, err)
	require.Len(t, resp.Parts, 1)
	assert.True(t, strings.HasPrefix(resp.MessageID, "msg_"))

	s1, err := m.CreateSession(ctx, &handoff.CreateSessionRequest{ParentID: "ses_1", Title: "t"})
	require.NoError(t, err)
	s2, err := m.CreateSession(ctx, &handoff.CreateSessionRequest{ParentID: "ses_1", Title: "t"})
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, "ses_1", s1.ParentID)

	assert.Equal(t, []string{"prompt", "create_session", "create_session"}, m.Calls())
}

func TestMockHost_ErrorInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMockHost().
		WithPromptError(ErrMockHost).
		WithAppendError(ErrMockHost)

	_, err := m.Prompt(ctx, &handoff.PromptRequest{})
	assert.ErrorIs(t, err, ErrMockHost)
	assert.ErrorIs(t, m.AppendPrompt(ctx, "x"), ErrMockHost)
	assert.NoError(t, m.ShowToast(ctx, &handoff.Toast{Message: "hi"}))
	assert.Equal(t, "hi", m.LastToast().Message)

	m.Reset()
	assert.Empty(t, m.Calls())
	assert.Nil(t, m.LastToast())
}

func TestMockHost_DelayHonoursContext(t *testing.T) {
	m := NewMockHost().WithDelay(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.AppendPrompt(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.Appends())
}
