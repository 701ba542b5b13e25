package ai

import (
	"fmt"

	"github.com/manu-sreesanth/echojournal/internal/analysis/mood"
	"github.com/manu-sreesanth/echojournal/internal/analysis/normalize"
	"github.com/manu-sreesanth/echojournal/internal/analysis/safety"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
)

// Dispatch pairs the system prompt for one (intent, persona) combination with
// the normalizer that makes the model's raw output usable.
type Dispatch struct {
	System    string
	Normalize func(raw string) any
}

// normalizers is the closed intent-to-normalizer mapping. Every intent the
// service dispatches appears here exactly once.
var normalizers = map[normalize.Intent]func(raw string) any{
	normalize.IntentChat:                func(raw string) any { return normalize.Text(normalize.IntentChat, raw) },
	normalize.IntentSummary:             func(raw string) any { return normalize.Text(normalize.IntentSummary, raw) },
	normalize.IntentMentoring:           func(raw string) any { return normalize.Mentoring(raw) },
	normalize.IntentMentoringReflect:    func(raw string) any { return normalize.MentoringReflect(raw) },
	normalize.IntentMoodClassify:        func(raw string) any { return normalize.Mood(raw, mood.Default) },
	normalize.IntentEmotionAnalyze:      func(raw string) any { return normalize.Emotion(raw) },
	normalize.IntentGrowthInsight:       func(raw string) any { return normalize.GrowthInsight(raw) },
	normalize.IntentReflectionQuestions: func(raw string) any { return normalize.ReflectionQuestions(raw) },
}

// BuildDispatch resolves the prompt template and normalizer for one intent.
// The mapping is static; an unknown intent is a programming error surfaced as
// an error rather than a silent default.
func BuildDispatch(intent normalize.Intent, p persona.Persona) (Dispatch, error) {
	normalizer, ok := normalizers[intent]
	if !ok {
		return Dispatch{}, fmt.Errorf("no dispatch registered for intent %q", intent)
	}

	pm := newPromptManager()
	system := pm.personaPrompt(p) + "\n\n" + intentInstruction(intent)

	return Dispatch{System: system, Normalize: normalizer}, nil
}

// Guard runs the crisis check that precedes every dispatch of user-authored
// text. When it matches, the caller must return the fixed safety reply and
// skip the model entirely.
func Guard(text string) (reply string, crisis bool) {
	if !safety.DetectCrisis(text) {
		return "", false
	}
	return safety.Message + "\n\n" + safety.HotlineHint, true
}
