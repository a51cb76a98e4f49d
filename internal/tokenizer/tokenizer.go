package tokenizer

import (
	"sync"

	"go.uber.org/zap"
)

// Tokenizer 是统一的 Token 计数接口，满足 handoff.TokenCounter。
type Tokenizer interface {
	// CountTokens 返回给定文本的 token 数.
	CountTokens(text string) (int, error)

	// Name 返回分词器的名称.
	Name() string
}

// New 按模型名创建分词器：优先使用 tiktoken 精确计数，
// 编码数据不可用时自动回退到 CJK 估算器。
func New(model string, logger *zap.Logger) Tokenizer {
	return NewFallback(NewTiktokenTokenizer(model), NewEstimatorTokenizer(), logger)
}

// FallbackTokenizer 在 primary 出错后永久切换到 secondary。
type FallbackTokenizer struct {
	primary   Tokenizer
	secondary Tokenizer
	logger    *zap.Logger

	mu       sync.RWMutex
	degraded bool
}

// NewFallback 创建带回退的分词器.
func NewFallback(primary, secondary Tokenizer, logger *zap.Logger) *FallbackTokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackTokenizer{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With(zap.String("component", "tokenizer")),
	}
}

// CountTokens 使用当前生效的分词器计数.
func (f *FallbackTokenizer) CountTokens(text string) (int, error) {
	if f.active() == f.primary {
		n, err := f.primary.CountTokens(text)
		if err == nil {
			return n, nil
		}
		f.degrade(err)
	}
	return f.secondary.CountTokens(text)
}

// Name 返回当前生效分词器的名称.
func (f *FallbackTokenizer) Name() string {
	return f.active().Name()
}

func (f *FallbackTokenizer) active() Tokenizer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.degraded {
		return f.secondary
	}
	return f.primary
}

func (f *FallbackTokenizer) degrade(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return
	}
	f.degraded = true
	f.logger.Warn("tokenizer unavailable, falling back",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.secondary.Name()),
		zap.Error(err),
	)
}
