package handoff

import (
	"fmt"
	"strings"
)

// categoryTemplate holds the category-specific parts of the system prompt.
type categoryTemplate struct {
	name   string
	format string
	rules  []string
}

var categoryTemplates = map[Category]categoryTemplate{
	CategoryImpl: {
		name: "implementation",
		format: `Tasks:
1. [high-level task]
2. [high-level task]

Specific steps:
- [exact file path] - [function/type name and signature] - [what to change]
- [exact file path] - [function/type name and signature] - [what to change]

Reuse:
- [existing function or type, with its file path, that must be called instead of rewritten]`,
		rules: []string{
			"Name the plan or phase being executed in the goal sentence.",
			"Number the tasks; keep each task to one line.",
			"Bind every step to an explicit path and function, type or signature.",
			"List existing functionality to reuse so the new session does not re-derive it.",
		},
	},
	CategoryPlanning: {
		name: "planning",
		format: `Findings:
1. [concrete fact] (@path/where/it/was/found)
2. [concrete fact] (@path/where/it/was/found)

Constraints:
1. [hard constraint the plan must respect]

Decisions:
1. [open decision the plan must resolve]`,
		rules: []string{
			"Findings are facts, not opinions, and each one names the file it came from.",
			"Constraints are hard limits only: compatibility, interfaces, performance budgets.",
			"Decisions are questions the plan must answer, not answers.",
			"Do NOT include implementation-level detail such as code or step lists.",
		},
	},
	CategoryResearch: {
		name: "research",
		format: `Established facts:
1. [fact confirmed in this session]

Dead ends:
1. [approach or location already checked] - [one-line reason it did not pan out]

Investigate next:
1. [specific question or action]`,
		rules: []string{
			"Established facts are verified conclusions only.",
			"Every dead end carries a one-line reason so the new session does not repeat it.",
			"Investigate next lists concrete actions: files to read, commands to run, questions to answer.",
			"Do NOT include implementation detail.",
		},
	},
	CategoryGeneral: {
		name: "continuation",
		format: `Current state:
[two or three lines on where the work stands]

Next action:
[exactly one concrete next action]`,
		rules: []string{
			"Keep the current state minimal.",
			"Give exactly one next action, concrete enough to start on immediately.",
		},
	},
}

func templateFor(c Category) categoryTemplate {
	if t, ok := categoryTemplates[c]; ok {
		return t
	}
	return categoryTemplates[CategoryGeneral]
}

const systemPromptHeader = `You are generating a handoff prompt to start a new, focused session.
Your output will be used VERBATIM as the opening input of a fresh session with NO prior history.

OUTPUT RULES:
1. Output ONLY the handoff content. No preamble, no meta-commentary, no "Here's the handoff:".
2. Do not wrap the output in code fences, quotes or any other markup.
3. The new session must be able to start work IMMEDIATELY from your output.
4. Include only what is needed for the NEXT task, not the journey that led to it.

SECTION ORDER (mandatory):
1. File references first, one per line, written as @path/to/file
2. One sentence starting with "The goal is to" stating what the new session will accomplish
3. The %s context below`

const systemPromptPrinciples = `PRINCIPLES:
- Files are the primary context: list every file the new session must read, modify or create.
- Be concrete: exact paths, function names, types, signatures.
- No journey recap: only conclusions matter.
- No rationale unless it is critical to the task.
- Dense with actionable information, like picking up detailed notes from a colleague.`

// BuildSystemPrompt returns the system instruction for a category.
// The result depends only on c.
func BuildSystemPrompt(c Category) string {
	t := templateFor(c)

	var b strings.Builder
	fmt.Fprintf(&b, systemPromptHeader, strings.ToUpper(t.name))
	b.WriteString("\n\nFORMAT:\n\n@path/to/relevant/file\n@path/to/another/file\n\n")
	b.WriteString("The goal is to [single sentence].\n\n")
	b.WriteString(t.format)
	fmt.Fprintf(&b, "\n\n%s RULES:\n", strings.ToUpper(t.name))
	for _, r := range t.rules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(systemPromptPrinciples)
	return b.String()
}

// BuildUserPrompt returns the user instruction embedding the goal verbatim.
func BuildUserPrompt(goal string, c Category) string {
	t := templateFor(c)
	return fmt.Sprintf(`Generate a handoff prompt for a new session.

USER'S GOAL: "%s"

HANDOFF TYPE: %s

Analyze our conversation and determine:
1. What context does the new session need to start this work immediately?
2. Which files should be loaded?

Then write the handoff using the %s format from your instructions.
Output ONLY the handoff body.`, goal, t.name, t.name)
}
