package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubTokenizer struct {
	name  string
	n     int
	err   error
	calls int
}

func (s *stubTokenizer) CountTokens(string) (int, error) {
	s.calls++
	return s.n, s.err
}

func (s *stubTokenizer) Name() string { return s.name }

func TestEstimator_CountTokens(t *testing.T) {
	e := NewEstimatorTokenizer()

	n, err := e.CountTokens("")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, _ = e.CountTokens("a")
	assert.Equal(t, 1, n, "non-empty text counts at least one token")

	n, _ = e.CountTokens("abcdefghijklmnop")
	assert.Equal(t, 4, n)

	n, _ = e.CountTokens("会话交接")
	assert.Equal(t, 2, n)

	n, _ = e.CountTokens("セッション、引き継ぎ。")
	assert.Equal(t, 7, n, "kana and ideographic punctuation weigh as ideographs")

	n, _ = e.CountTokens("交接 handoff")
	assert.Equal(t, 3, n, "mixed text sums both classes")
	assert.Equal(t, "estimator", e.Name())
}

func TestEncodingFor(t *testing.T) {
	tests := map[string]string{
		"gpt-4o-mini":       "o200k_base",
		"gpt-4-turbo":       "cl100k_base",
		"gpt-3.5-turbo":     "cl100k_base",
		"o3-mini":           "o200k_base",
		"claude-3-5-sonnet": defaultEncoding,
		"":                  defaultEncoding,
	}
	for model, want := range tests {
		assert.Equal(t, want, encodingFor(model), model)
	}
}

func TestTiktoken_UnknownEncodingFails(t *testing.T) {
	tk := newTiktoken("custom", "no_such_encoding")
	_, err := tk.CountTokens("hello")
	assert.Error(t, err)

	// 初始化错误会被缓存
	_, err2 := tk.CountTokens("hello")
	assert.Equal(t, err, err2)
	assert.Equal(t, "tiktoken[no_such_encoding]", tk.Name())
}

func TestFallback_DegradesOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	primary := &stubTokenizer{name: "primary", err: errors.New("offline")}
	secondary := &stubTokenizer{name: "secondary", n: 7}
	f := NewFallback(primary, secondary, zap.New(core))

	for i := 0; i < 3; i++ {
		n, err := f.CountTokens("text")
		require.NoError(t, err)
		assert.Equal(t, 7, n)
	}

	assert.Equal(t, 1, primary.calls, "primary is abandoned after its first failure")
	assert.Equal(t, 3, secondary.calls)
	assert.Equal(t, "secondary", f.Name())
	assert.Equal(t, 1, logs.FilterMessage("tokenizer unavailable, falling back").Len())
}

func TestFallback_UsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubTokenizer{name: "primary", n: 3}
	secondary := &stubTokenizer{name: "secondary", n: 9}
	f := NewFallback(primary, secondary, nil)

	n, err := f.CountTokens("text")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, secondary.calls)
	assert.Equal(t, "primary", f.Name())
}

func TestFallback_RealTiktokenFallsBackToEstimator(t *testing.T) {
	f := NewFallback(newTiktoken("custom", "no_such_encoding"), NewEstimatorTokenizer(), zap.NewNop())
	n, err := f.CountTokens("abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
