package analyzer

import "regexp"

// Task-type detection patterns. Each matches independently; a prompt can
// carry several tags at once.
var taskPatterns = map[string]*regexp.Regexp{
	"code":        regexp.MustCompile(`\b(code|coding|function|debug|program|script|algorithm|implement|compile|refactor|api|bug)\b`),
	"writing":     regexp.MustCompile(`\b(write|essay|article|blog|story|email|letter|draft|compose|rewrite)\b`),
	"analysis":    regexp.MustCompile(`\b(analy[sz]e|analysis|evaluate|assess|compare|review|research|investigate)\b`),
	"math":        regexp.MustCompile(`\b(math|calculate|calculation|equation|solve|integral|derivative|algebra|geometry|statistics)\b`),
	"translation": regexp.MustCompile(`\b(translate|translation)\b`),
	"simple":      regexp.MustCompile(`\b(what is|who is|define|definition|meaning of|hello|hi|thanks)\b`),
}

// Complexity modifiers. These only apply when the corresponding task tag
// matched; see Analyze for the weights.
var (
	codeComplexPattern   = regexp.MustCompile(`\b(complex|advanced|optimization|optimize|optimise)\b`)
	analysisDeepPattern  = regexp.MustCompile(`\b(deep|thorough|comprehensive|in-depth)\b`)
	mathAdvancedPattern  = regexp.MustCompile(`\b(proof|theorem|advanced)\b`)
	multiStepPattern     = regexp.MustCompile(`\b(step[- ]by[- ]step|chain of thought|multiple steps|first .* then|break (it|this) down)\b`)
	simpleWordsPattern   = regexp.MustCompile(`\b(basic|easy|quick)\b`)
)

// Requirement flags. Independent of each other and of the complexity score.
var (
	reasoningPattern  = regexp.MustCompile(`\b(why|reason|reasoning|logic|logical|deduce|prove|explain why)\b`)
	creativityPattern = regexp.MustCompile(`\b(creative|imagine|imaginative|story|poem|brainstorm|invent)\b`)
	accuracyPattern   = regexp.MustCompile(`\b(accurate|accuracy|precise|precisely|exact|exactly|correct|factual)\b`)
)
