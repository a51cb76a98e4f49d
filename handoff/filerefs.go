package handoff

import (
	"regexp"
	"strings"
)

// fileRefPattern matches "@path" tokens. The @ must open the text or follow
// whitespace or opening punctuation, which keeps e-mail addresses out.
var fileRefPattern = regexp.MustCompile("(?:^|[\\s(\\[{\"'`,;:])@([\\w./-]+)")

// ExtractFileReferences returns the distinct @-referenced paths of a prompt in
// first-seen order. Trailing sentence punctuation is not part of a path.
func ExtractFileReferences(prompt string) []string {
	matches := fileRefPattern.FindAllStringSubmatch(prompt, -1)
	refs := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		ref := strings.TrimRight(m[1], "./")
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}
