package task

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the outcome of classifying one parameter value.
type Verdict struct {
	// Ambiguous is true when the value cannot be used as-is and the user
	// must supply a concrete one.
	Ambiguous bool
	// Question is the clarification question to ask when Ambiguous.
	Question string
	// Examples suggest answer shapes to the user.
	Examples []string
}

// Predicate decides whether a planned parameter value is concrete or needs
// clarification. Implementations must be side-effect free; the same inputs
// always yield the same verdict.
type Predicate interface {
	Classify(name string, value string, query string) Verdict
}

// referencePattern matches execution-context references that the executor
// resolves later ({{task_3.result}}, {{prev.result}}). These are concrete,
// not ambiguous.
var referencePattern = regexp.MustCompile(`^\{\{(task_\d+|prev)\.result\}\}$`)

// placeholderPattern matches templating leftovers like <value> or {value}.
var placeholderPattern = regexp.MustCompile(`^<[^>]*>$|^\{[^{}]*\}$`)

// personalPattern matches first-person references the planner left
// unresolved ("my age", "my name", "user's salary").
var personalPattern = regexp.MustCompile(`(?i)\b(my|our|user's)\s+\w+`)

// Heuristic is the default predicate. It flags placeholder tokens and
// personal references; everything else is concrete.
type Heuristic struct{}

// NewHeuristic creates the default heuristic predicate.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify implements Predicate.
func (h *Heuristic) Classify(name string, value string, query string) Verdict {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return concrete()
	}
	if referencePattern.MatchString(trimmed) {
		return concrete()
	}

	lower := strings.ToLower(trimmed)
	switch {
	case placeholderPattern.MatchString(trimmed),
		strings.HasPrefix(trimmed, "USER_"),
		lower == "tbd",
		lower == "unknown",
		lower == "???":
		return h.ambiguous(name, trimmed)
	case personalPattern.MatchString(trimmed):
		return h.ambiguous(name, trimmed)
	}
	return concrete()
}

func concrete() Verdict {
	return Verdict{}
}

func (h *Heuristic) ambiguous(name, value string) Verdict {
	return Verdict{
		Ambiguous: true,
		Question:  fmt.Sprintf("What value should be used for %q? The request says %q, which I can't resolve on my own.", name, value),
		Examples:  examplesFor(name),
	}
}

// examplesFor suggests answer shapes from the parameter name.
func examplesFor(name string) []string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "age"), strings.Contains(lower, "count"),
		strings.Contains(lower, "num"), lower == "a", lower == "b":
		return []string{"30", "42"}
	case strings.Contains(lower, "name"):
		return []string{"Alice", "my-project"}
	case strings.Contains(lower, "date"), strings.Contains(lower, "time"):
		return []string{"2026-08-31", "today"}
	case strings.Contains(lower, "path"), strings.Contains(lower, "file"),
		strings.Contains(lower, "dir"):
		return []string{"/tmp/data.txt", "./report.csv"}
	default:
		return []string{"a concrete value", "skip"}
	}
}
