package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenTokenizer 使用 tiktoken 编码精确计数.
type TiktokenTokenizer struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// modelEncodings 将模型名前缀映射到 tiktoken 编码，按最长前缀优先匹配。
var modelEncodings = []struct {
	prefix   string
	encoding string
}{
	{prefix: "gpt-4o", encoding: "o200k_base"},
	{prefix: "o1", encoding: "o200k_base"},
	{prefix: "o3", encoding: "o200k_base"},
	{prefix: "gpt-4", encoding: "cl100k_base"},
	{prefix: "gpt-3.5", encoding: "cl100k_base"},
}

// defaultEncoding 用于未知模型；对 Claude 等非 OpenAI 模型同样是合理的近似。
const defaultEncoding = "cl100k_base"

// NewTiktokenTokenizer 为给定模型创建 tiktoken 分词器.
func NewTiktokenTokenizer(model string) *TiktokenTokenizer {
	return newTiktoken(model, encodingFor(model))
}

func newTiktoken(model, encoding string) *TiktokenTokenizer {
	return &TiktokenTokenizer{model: model, encoding: encoding}
}

func encodingFor(model string) string {
	for _, m := range modelEncodings {
		if strings.HasPrefix(model, m.prefix) {
			return m.encoding
		}
	}
	return defaultEncoding
}

// init 延迟初始化编码（首次使用时可能下载 BPE 数据）.
func (t *TiktokenTokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *TiktokenTokenizer) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *TiktokenTokenizer) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
