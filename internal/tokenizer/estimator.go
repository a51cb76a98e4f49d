package tokenizer

import "unicode"

// Estimator approximates token counts from character classes when no
// encoding data is available. Ideographic scripts pack far fewer characters
// into a token than Latin text, so the two are weighed separately.
type Estimator struct {
	// CharsPerToken applies to everything that is not ideographic.
	CharsPerToken float64
	// IdeographsPerToken applies to Han, Hiragana, Katakana and Hangul.
	IdeographsPerToken float64
}

// NewEstimatorTokenizer returns an estimator with ratios measured on
// cl100k_base: about four Latin characters or one and a half ideographs per token.
func NewEstimatorTokenizer() *Estimator {
	return &Estimator{CharsPerToken: 4, IdeographsPerToken: 1.5}
}

var ideographic = []*unicode.RangeTable{
	unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul,
}

// CountTokens never fails. Non-empty text counts at least one token.
func (e *Estimator) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	var ideographs, others int
	for _, r := range text {
		if unicode.IsOneOf(ideographic, r) || isCJKPunct(r) {
			ideographs++
		} else {
			others++
		}
	}

	n := int(float64(ideographs)/e.IdeographsPerToken + float64(others)/e.CharsPerToken)
	return max(n, 1), nil
}

func (e *Estimator) Name() string { return "estimator" }

// isCJKPunct covers ideographic punctuation and full-width forms, which the
// script tables above do not include.
func isCJKPunct(r rune) bool {
	return (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF)
}
