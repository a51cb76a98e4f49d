package handoff

import (
	"regexp"
	"strings"

	"github.com/BaSui01/sessionhandoff/types"
)

// Category selects the prompt template and title prefix of a handoff.
type Category string

const (
	CategoryResearch Category = "research"
	CategoryPlanning Category = "planning"
	CategoryImpl     Category = "impl"
	CategoryGeneral  Category = "general"
)

// Categories returns all categories in classification priority order,
// with the fallback last.
func Categories() []Category {
	return []Category{CategoryImpl, CategoryPlanning, CategoryResearch, CategoryGeneral}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryResearch, CategoryPlanning, CategoryImpl, CategoryGeneral:
		return true
	}
	return false
}

// TitlePrefix is prepended to session titles; research and general get none.
func (c Category) TitlePrefix() string {
	switch c {
	case CategoryImpl:
		return "Impl: "
	case CategoryPlanning:
		return "Plan: "
	default:
		return ""
	}
}

// ParseCategory accepts a category name or one of its common aliases.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "impl", "implement", "implementation":
		return CategoryImpl, nil
	case "planning", "plan":
		return CategoryPlanning, nil
	case "research", "investigate":
		return CategoryResearch, nil
	case "general", "continue", "continuation":
		return CategoryGeneral, nil
	}
	return "", types.Errorf(types.ErrInvalidInput, "unknown handoff category %q", s)
}

// Rule maps a set of patterns to a category. A rule matches when any pattern
// matches the lowercased goal.
type Rule struct {
	Category Category
	Patterns []*regexp.Regexp
}

// Matches reports whether the rule fires for an already lowercased goal.
func (r Rule) Matches(goal string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(goal) {
			return true
		}
	}
	return false
}

func words(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`\b` + p + `\b`)
	}
	return out
}

// DefaultRules is the priority-ordered rule table: impl > planning > research.
var DefaultRules = []Rule{
	{
		Category: CategoryImpl,
		Patterns: words(
			`implement(s|ing|ation)?`, `build(ing)?`, `execute`, `phase \d+`, `step \d+`,
			`code`, `fix(es|ing)?`, `write`, `add`, `refactor(ing)?`, `create`, `wire up`, `migrate`,
		),
	},
	{
		Category: CategoryPlanning,
		Patterns: words(
			`plan(s|ning)?`, `design(ing)?`, `architect(ure)?`, `strategy`, `approach`,
			`propose`, `roadmap`, `scope`, `spec(ify|ification)?`,
		),
	},
	{
		Category: CategoryResearch,
		Patterns: words(
			`research`, `investigat(e|ion)`, `explor(e|ation)`, `understand`, `find out`,
			`figure out`, `how does`, `how do`, `how the`, `why`, `analy[sz]e`, `look into`, `learn`,
		),
	},
}

// Classifier evaluates an ordered rule table.
type Classifier struct {
	rules    []Rule
	fallback Category
}

// NewClassifier creates a classifier over rules; goals matching none fall back to general.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules, fallback: CategoryGeneral}
}

// Classify returns the category of the first matching rule.
func (c *Classifier) Classify(goal string) Category {
	g := strings.ToLower(goal)
	for _, r := range c.rules {
		if r.Matches(g) {
			return r.Category
		}
	}
	return c.fallback
}

var defaultClassifier = NewClassifier(DefaultRules)

// Classify maps a free-text goal to a category using DefaultRules.
func Classify(goal string) Category {
	return defaultClassifier.Classify(goal)
}
