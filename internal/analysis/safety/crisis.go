package safety

import (
	"regexp"
	"strings"
)

// Phrase patterns that indicate the user may be in crisis. Word boundaries
// keep near-misses like "diet" or "killing time" from matching.
var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwant(s)? to die\b`),
	regexp.MustCompile(`(?i)\bwish(ed)? i (was|were) dead\b`),
	regexp.MustCompile(`(?i)\bkill(ing)? myself\b`),
	regexp.MustCompile(`(?i)\bend(ing)? my (own )?life\b`),
	regexp.MustCompile(`(?i)\bsuicid(e|al)\b`),
	regexp.MustCompile(`(?i)\bself[- ]harm(ing)?\b`),
	regexp.MustCompile(`(?i)\bhurt(ing)? myself\b`),
	regexp.MustCompile(`(?i)\bno reason to (live|go on)\b`),
	regexp.MustCompile(`(?i)\bbetter off without me\b`),
	regexp.MustCompile(`(?i)\bdon'?t want to (be alive|live anymore|wake up)\b`),
	regexp.MustCompile(`(?i)\bcan'?t go on\b`),
}

// Message returned in place of any persona response when a crisis phrase is
// detected. Callers must not run normal dispatch after a match.
const Message = "I'm really glad you told me. What you're feeling sounds incredibly heavy, and you don't have to carry it alone. Please reach out to someone who can be with you right now, whether that's a trusted person in your life or a crisis line."

// HotlineHint is appended to Message by handlers that render the full
// safety response.
const HotlineHint = "If you are in immediate danger, contact your local emergency number. In the US you can call or text 988 (Suicide & Crisis Lifeline)."

// DetectCrisis reports whether the text contains self-harm or suicide
// language. Empty input never matches.
func DetectCrisis(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, re := range crisisPatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}
