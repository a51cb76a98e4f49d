package handoff

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxTitleLength bounds derived session titles, prefix and ellipsis included.
const DefaultMaxTitleLength = 50

const ellipsis = "..."

var fillerPrefix = regexp.MustCompile(`(?i)^(now|please|can you|i want to|let's)\s+`)

// DeriveTitle builds a session title from a goal: filler openings are
// stripped, the category prefix is added, the body is truncated so the whole
// title fits maxLen runes, and the body's first letter is upper-cased.
func DeriveTitle(goal string, category Category, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxTitleLength
	}

	body := strings.TrimSpace(goal)
	for {
		stripped := fillerPrefix.ReplaceAllString(body, "")
		if stripped == body {
			break
		}
		body = strings.TrimSpace(stripped)
	}

	prefix := category.TitlePrefix()
	room := maxLen - utf8.RuneCountInString(prefix)
	if room < len(ellipsis)+1 {
		prefix = ""
		room = maxLen
	}

	if utf8.RuneCountInString(body) > room {
		runes := []rune(body)
		cut := room - len(ellipsis)
		if cut < 0 {
			cut = 0
		}
		body = strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + ellipsis
	}

	return prefix + capitalize(body)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
