package plugin

import (
	"strings"

	"github.com/BaSui01/sessionhandoff/handoff"
)

const typeFlag = "--type"

// ParseArguments splits "/handoff" arguments into a goal and an optional
// category override given as a leading --type=<category> or --type <category>.
func ParseArguments(args string) (goal string, category handoff.Category, err error) {
	rest := strings.TrimSpace(args)
	if !strings.HasPrefix(rest, typeFlag) {
		return rest, "", nil
	}

	after := rest[len(typeFlag):]
	var value string
	switch {
	case strings.HasPrefix(after, "="):
		value, rest = splitWord(after[1:])
	case after == "" || after[0] == ' ' || after[0] == '\t':
		value, rest = splitWord(strings.TrimSpace(after))
	default:
		// "--typescript migration" is a goal, not a flag.
		return rest, "", nil
	}

	category, err = handoff.ParseCategory(value)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(rest), category, nil
}

func splitWord(s string) (word, rest string) {
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
