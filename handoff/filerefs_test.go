package handoff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestExtractFileReferences(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			name:   "dedupe keeps first-seen order",
			prompt: "@src/a.ts @src/b.ts @src/a.ts",
			want:   []string{"src/a.ts", "src/b.ts"},
		},
		{
			name:   "one per line",
			prompt: "@internal/auth/token.go\n@internal/auth/token_test.go\n\nThe goal is to fix expiry.",
			want:   []string{"internal/auth/token.go", "internal/auth/token_test.go"},
		},
		{
			name:   "trailing sentence punctuation",
			prompt: "See @docs/design.md. Then read @pkg/.",
			want:   []string{"docs/design.md", "pkg"},
		},
		{
			name:   "inside punctuation",
			prompt: "Findings:\n1. token TTL is 5m (@config/defaults.go)\n2. `@cmd/main.go` wires it",
			want:   []string{"config/defaults.go", "cmd/main.go"},
		},
		{
			name:   "bare identifiers and hyphens",
			prompt: "@Makefile and @web-ui/src/app.tsx",
			want:   []string{"Makefile", "web-ui/src/app.tsx"},
		},
		{
			name:   "e-mail addresses are not references",
			prompt: "ping dev@example.com about @README.md",
			want:   []string{"README.md"},
		},
		{
			name:   "nothing to extract",
			prompt: "no references here @ all",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFileReferences(tt.prompt))
		})
	}
}

func TestProperty_FileReferencesIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := rapid.SliceOf(rapid.StringMatching(`[a-z]{1,6}(/[a-z_]{1,6}){0,3}(\.[a-z]{1,3})?`)).Draw(t, "paths")

		tokens := make([]string, len(paths))
		for i, p := range paths {
			tokens[i] = "@" + p
		}
		first := ExtractFileReferences(strings.Join(tokens, " "))

		seen := map[string]bool{}
		for _, ref := range first {
			if seen[ref] {
				t.Fatalf("duplicate reference %q", ref)
			}
			seen[ref] = true
		}
		if len(first) > len(paths) {
			t.Fatalf("more references than tokens")
		}

		again := make([]string, len(first))
		for i, ref := range first {
			again[i] = "@" + ref
		}
		second := ExtractFileReferences(strings.Join(again, "\n"))
		if strings.Join(first, ",") != strings.Join(second, ",") {
			t.Fatalf("not idempotent: %v vs %v", first, second)
		}
	})
}
