// Package normalize converts free-form model output into the structured
// result each intent promises. Every function here is total: any input,
// including empty strings and broken JSON, yields a usable value and never
// an error.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/manu-sreesanth/echojournal/internal/analysis/mood"
	"github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/mentoring"
)

// Intent identifies the purpose of one model invocation and therefore which
// template and normalizer apply.
type Intent string

const (
	IntentChat                Intent = "chat"
	IntentSummary             Intent = "summary"
	IntentMentoring           Intent = "mentoring"
	IntentMentoringReflect    Intent = "mentoring-reflect"
	IntentMoodClassify        Intent = "mood-classify"
	IntentEmotionAnalyze      Intent = "emotion-analyze"
	IntentGrowthInsight       Intent = "growth-insight"
	IntentReflectionQuestions Intent = "reflection-questions"
)

// Cardinality contracts for array-valued fields.
const (
	MinActionItems = 3
	MaxActionItems = 6
	QuestionCount  = 3
)

// Fixed fallback strings for the plain-text intents.
const (
	FallbackChat    = "I'm here with you. Tell me a little more about what's on your mind."
	FallbackSummary = "Thank you for writing today. Putting it into words is already a step."
	FallbackReflect = "Sit with what came up for a moment. Small reflections compound over time."
)

var actionItemPads = []string{
	"Write one honest sentence about how today actually felt.",
	"Take a ten minute walk without your phone.",
	"Name one thing you can let go of this week.",
}

var questionPads = []string{
	"What part of today took the most energy from you?",
	"If a friend described this day to you, what would you tell them?",
	"What is one small thing you're looking forward to?",
}

// Text normalizes the plain-text intents (chat, summary, mentoring-reflect).
// Whitespace is trimmed; an empty result substitutes the intent's fixed
// fallback so the user never sees an empty bubble.
func Text(intent Intent, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		return trimmed
	}
	switch intent {
	case IntentSummary:
		return FallbackSummary
	case IntentMentoringReflect:
		return FallbackReflect
	default:
		return FallbackChat
	}
}

var nonLetters = regexp.MustCompile(`[^a-z]`)

// Mood folds raw model output onto the closed mood label set. Anything
// outside the set collapses to the caller-supplied fallback, so arbitrary
// model text can never leak out as a mood label.
func Mood(raw string, fallback mood.Label) mood.Label {
	cleaned := nonLetters.ReplaceAllString(strings.ToLower(raw), "")
	if mood.Valid(cleaned) {
		return mood.Label(cleaned)
	}
	return fallback
}

// Mentoring parses the structured mentoring result, enforcing the 3..6
// action item contract, and falls back to a fixed generic output when the
// text cannot be salvaged.
func Mentoring(raw string) mentoring.Output {
	var out mentoring.Output
	if !decodeJSON(raw, &out) || strings.TrimSpace(out.Text) == "" {
		out = fallbackMentoring()
	}
	out.Text = strings.TrimSpace(out.Text)
	out.ActionItems = clampList(out.ActionItems, MinActionItems, MaxActionItems, actionItemPads)
	if strings.TrimSpace(out.FocusArea) == "" {
		out.FocusArea = "self-reflection"
	}
	if strings.TrimSpace(out.Affirmation) == "" {
		out.Affirmation = "You showed up for yourself today, and that counts."
	}
	return out
}

// MentoringReflect parses a reflection continuation and caps it at two
// paragraphs, per the continuation contract.
func MentoringReflect(raw string) string {
	var payload struct {
		Text string `json:"text"`
	}
	text := ""
	if decodeJSON(raw, &payload) {
		text = strings.TrimSpace(payload.Text)
	}
	if text == "" {
		// Models frequently answer reflect prompts in prose despite the JSON
		// instruction; accept the prose as the continuation text.
		text = strings.TrimSpace(raw)
	}
	if text == "" {
		return FallbackReflect
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) > 2 {
		paragraphs = paragraphs[:2]
	}
	return strings.Join(paragraphs, "\n\n")
}

// Emotion parses the tone/balance/score reading for an entry.
func Emotion(raw string) journal.EmotionReading {
	var out journal.EmotionReading
	if !decodeJSON(raw, &out) || strings.TrimSpace(out.Tone) == "" {
		return journal.EmotionReading{Tone: "neutral", Balance: "balanced", Score: 0.5}
	}
	out.Tone = strings.ToLower(strings.TrimSpace(out.Tone))
	if strings.TrimSpace(out.Balance) == "" {
		out.Balance = "balanced"
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	return out
}

// GrowthInsight parses the insight/action pair for an entry.
func GrowthInsight(raw string) journal.GrowthInsight {
	var out journal.GrowthInsight
	if !decodeJSON(raw, &out) || strings.TrimSpace(out.Insight) == "" {
		return journal.GrowthInsight{
			Insight: "You're putting consistent effort into understanding yourself.",
			Action:  "Reread your last entry and underline one sentence that surprised you.",
		}
	}
	out.Insight = strings.TrimSpace(out.Insight)
	if strings.TrimSpace(out.Action) == "" {
		out.Action = actionItemPads[0]
	} else {
		out.Action = strings.TrimSpace(out.Action)
	}
	return out
}

// ReflectionQuestions parses the question list for an entry and pads or
// truncates to exactly QuestionCount entries.
func ReflectionQuestions(raw string) []string {
	var payload struct {
		Questions []string `json:"questions"`
	}
	var items []string
	if decodeJSON(raw, &payload) {
		items = payload.Questions
	}
	return clampList(items, QuestionCount, QuestionCount, questionPads)
}

func fallbackMentoring() mentoring.Output {
	return mentoring.Output{
		Text:        "Let's take stock together. Even without a clear picture of your recent days, the fact that you opened this session says you want to move forward. Start small: notice what drains you and what restores you, and give the restoring things a little more room this week.",
		ActionItems: append([]string(nil), actionItemPads...),
		FocusArea:   "self-reflection",
		Affirmation: "You showed up for yourself today, and that counts.",
	}
}

// clampList drops blank entries, truncates above max, and pads below min by
// cycling through the supplied placeholder list.
func clampList(items []string, min, max int, pads []string) []string {
	out := make([]string, 0, max)
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) == max {
			break
		}
	}
	for i := 0; len(out) < min; i++ {
		out = append(out, pads[i%len(pads)])
	}
	return out
}

func splitParagraphs(text string) []string {
	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// decodeJSON is the three-tier parse shared by all JSON intents: direct
// parse, then the first balanced {...} substring, then the same substring
// after light quote repair. It reports whether any tier produced a decode.
func decodeJSON(raw string, v any) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if json.Unmarshal([]byte(trimmed), v) == nil {
		return true
	}

	candidate, ok := balancedBraces(trimmed)
	if !ok {
		return false
	}
	if json.Unmarshal([]byte(candidate), v) == nil {
		return true
	}
	return json.Unmarshal([]byte(repairQuotes(candidate)), v) == nil
}

// balancedBraces extracts the first top-level {...} object, tracking strings
// and escapes so braces inside values don't end the scan early.
func balancedBraces(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

var unquotedValue = regexp.MustCompile(`(:\s*)([A-Za-z][^",{}\[\]]*?)(\s*[,}])`)

// repairQuotes wraps bare string values in quotes so near-JSON like
// {"mood": happy} survives a second parse. Keywords and numbers are left
// alone. This is deliberately best-effort; the caller still falls back to a
// fixed default when the repaired text doesn't parse.
func repairQuotes(s string) string {
	return unquotedValue.ReplaceAllStringFunc(s, func(m string) string {
		parts := unquotedValue.FindStringSubmatch(m)
		if parts == nil {
			return m
		}
		val := strings.TrimSpace(parts[2])
		switch val {
		case "true", "false", "null":
			return m
		}
		return parts[1] + `"` + val + `"` + parts[3]
	})
}
