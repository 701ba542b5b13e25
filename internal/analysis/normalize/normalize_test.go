package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manu-sreesanth/echojournal/internal/analysis/mood"
)

func TestTextTrimsAndFallsBack(t *testing.T) {
	assert.Equal(t, "hello", Text(IntentChat, "  hello \n"))
	assert.Equal(t, FallbackChat, Text(IntentChat, "   "))
	assert.Equal(t, FallbackSummary, Text(IntentSummary, ""))
	assert.Equal(t, FallbackReflect, Text(IntentMentoringReflect, "\n\t"))
}

func TestMoodClosedSet(t *testing.T) {
	testcases := []struct {
		name string
		raw  string
		want mood.Label
	}{
		{"exact", "sad", mood.Sad},
		{"uppercase", "HAPPY", mood.Happy},
		{"punctuation", `"anxious".`, mood.Anxious},
		{"with-prose", "Mood: calm", mood.Okay}, // "moodcalm" after stripping, not a label
		{"unknown", "melancholic", mood.Okay},
		{"empty", "", mood.Okay},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Mood(tc.raw, mood.Okay))
		})
	}

	// The fallback label is caller-chosen.
	assert.Equal(t, mood.Label("neutral"), Mood("nonsense", "neutral"))
}

func TestMentoringDirectJSON(t *testing.T) {
	raw := `{"text":"You have been pushing hard.","actionItems":["Sleep earlier","Walk daily","Call a friend","Plan Friday"],"focusArea":"rest","affirmation":"You are doing enough."}`
	out := Mentoring(raw)
	assert.Equal(t, "You have been pushing hard.", out.Text)
	assert.Equal(t, 4, len(out.ActionItems))
	assert.Equal(t, "rest", out.FocusArea)
}

func TestMentoringCardinality(t *testing.T) {
	// Too few items: pad up to the minimum.
	out := Mentoring(`{"text":"ok","actionItems":["only one"]}`)
	assert.Len(t, out.ActionItems, MinActionItems)
	assert.Equal(t, "only one", out.ActionItems[0])

	// Too many items: truncate at the maximum.
	many := `{"text":"ok","actionItems":["a","b","c","d","e","f","g","h","i","j"]}`
	assert.Len(t, Mentoring(many).ActionItems, MaxActionItems)

	// None at all.
	none := Mentoring(`{"text":"ok"}`)
	assert.GreaterOrEqual(t, len(none.ActionItems), MinActionItems)
	assert.LessOrEqual(t, len(none.ActionItems), MaxActionItems)
}

func TestMentoringTotalOnGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"I'm sorry, I can't produce JSON today.",
		`{"text": "truncated`,
		"{{{{",
		`[1,2,3]`,
	} {
		out := Mentoring(raw)
		assert.NotEmpty(t, out.Text, "raw=%q", raw)
		assert.GreaterOrEqual(t, len(out.ActionItems), MinActionItems, "raw=%q", raw)
		assert.LessOrEqual(t, len(out.ActionItems), MaxActionItems, "raw=%q", raw)
	}
}

func TestGrowthInsightEmbeddedInProse(t *testing.T) {
	raw := `Sure! Here's the JSON: {"insight": "Take breaks", "action": "Walk for 10 minutes"}`
	out := GrowthInsight(raw)
	assert.Equal(t, "Take breaks", out.Insight)
	assert.Equal(t, "Walk for 10 minutes", out.Action)
}

func TestGrowthInsightQuoteRepair(t *testing.T) {
	// Unquoted string values, the classic failure mode.
	raw := `{"insight": Take breaks, "action": Walk for 10 minutes}`
	out := GrowthInsight(raw)
	assert.Equal(t, "Take breaks", out.Insight)
	assert.Equal(t, "Walk for 10 minutes", out.Action)
}

func TestEmotionDefaultsAndClamping(t *testing.T) {
	out := Emotion(`{"tone":"Hopeful","balance":"","score":3.2}`)
	assert.Equal(t, "hopeful", out.Tone)
	assert.Equal(t, "balanced", out.Balance)
	assert.Equal(t, 1.0, out.Score)

	fallback := Emotion("no json here")
	assert.Equal(t, "neutral", fallback.Tone)
	assert.Equal(t, 0.5, fallback.Score)
}

func TestReflectionQuestionsExactlyThree(t *testing.T) {
	assert.Len(t, ReflectionQuestions(`{"questions":["one?"]}`), QuestionCount)
	assert.Len(t, ReflectionQuestions(`{"questions":["a?","b?","c?","d?","e?"]}`), QuestionCount)
	assert.Len(t, ReflectionQuestions("not json"), QuestionCount)
	assert.Len(t, ReflectionQuestions(""), QuestionCount)
}

func TestMentoringReflectTwoParagraphCap(t *testing.T) {
	long := `{"text":"First paragraph.\n\nSecond paragraph.\n\nThird paragraph."}`
	out := MentoringReflect(long)
	assert.Equal(t, 2, len(strings.Split(out, "\n\n")))
	assert.Contains(t, out, "First paragraph.")
	assert.NotContains(t, out, "Third")

	// Prose answers are accepted as the continuation text.
	assert.Equal(t, "Just some prose.", MentoringReflect("Just some prose."))
	assert.Equal(t, FallbackReflect, MentoringReflect(""))
}

func TestBalancedBracesIgnoresStringBraces(t *testing.T) {
	raw := `prefix {"insight":"use {braces} freely","action":"ok"} suffix`
	out := GrowthInsight(raw)
	assert.Equal(t, "use {braces} freely", out.Insight)
}
