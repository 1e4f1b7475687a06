// Package analyzer estimates prompt complexity and task type from message
// text.
//
// This is a deterministic keyword heuristic, not a calibrated model: the same
// input always yields the same analysis, and the thresholds below are pinned
// by tests because routing decisions depend on them directly.
package analyzer

import (
	"math"
	"strings"
)

// Message is one chat message; only the text content participates in
// analysis.
type Message struct {
	Role    string
	Content string
}

// Analysis is the per-request complexity estimate.
type Analysis struct {
	Complexity         float64 // 0.0-1.0
	TaskTypes          []string
	RequiresReasoning  bool
	RequiresCreativity bool
	RequiresAccuracy   bool
	TokenCount         int // rough estimate, chars/4 rounded up
}

// HasTask reports whether the analysis tagged the given task type.
func (a Analysis) HasTask(tag string) bool {
	for _, t := range a.TaskTypes {
		if t == tag {
			return true
		}
	}
	return false
}

// Analyze maps an ordered message list to a complexity estimate.
func Analyze(messages []Message) Analysis {
	var b strings.Builder
	for _, m := range messages {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.Content)
	}
	text := strings.ToLower(b.String())

	a := Analysis{
		TokenCount: int(math.Ceil(float64(len(text)) / 4)),
	}

	for _, tag := range []string{"code", "writing", "analysis", "math", "translation", "simple"} {
		if taskPatterns[tag].MatchString(text) {
			a.TaskTypes = append(a.TaskTypes, tag)
		}
	}

	complexity := 0.3

	switch {
	case a.TokenCount > 1000:
		complexity += 0.3
	case a.TokenCount > 500:
		complexity += 0.2
	case a.TokenCount > 100:
		complexity += 0.1
	}

	if a.HasTask("code") && codeComplexPattern.MatchString(text) {
		complexity += 0.3
	}
	if a.HasTask("analysis") && analysisDeepPattern.MatchString(text) {
		complexity += 0.3
	}
	if a.HasTask("math") && mathAdvancedPattern.MatchString(text) {
		complexity += 0.4
	}
	if multiStepPattern.MatchString(text) {
		complexity += 0.2
	}
	if a.HasTask("simple") || simpleWordsPattern.MatchString(text) {
		complexity -= 0.2
	}

	a.Complexity = clamp01(complexity)

	a.RequiresReasoning = reasoningPattern.MatchString(text)
	a.RequiresCreativity = creativityPattern.MatchString(text)
	a.RequiresAccuracy = accuracyPattern.MatchString(text)

	return a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
