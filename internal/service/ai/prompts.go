package ai

import (
	"fmt"
	"strings"

	"github.com/manu-sreesanth/echojournal/internal/analysis/mood"
	"github.com/manu-sreesanth/echojournal/internal/analysis/normalize"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
)

// PromptTemplate groups the pieces a persona's system prompt is built from.
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ContextRules     []string
}

// promptManager holds per-persona templates and the per-intent task
// instructions appended to them.
type promptManager struct {
	templates map[string]*PromptTemplate
}

func newPromptManager() *promptManager {
	pm := &promptManager{templates: make(map[string]*PromptTemplate)}
	pm.loadDefaultTemplates()
	return pm
}

func (pm *promptManager) loadDefaultTemplates() {
	pm.templates[persona.MiraID] = &PromptTemplate{
		SystemPrompt: "You are Mira, a gentle journaling companion. You listen first. You name feelings carefully and never minimize them.",
		PersonalityHints: []string{
			"Reflect the user's feelings back before offering anything else",
			"Use soft, unhurried language; short sentences are fine",
			"Never push toward solutions unless the user asks",
		},
		ContextRules: []string{
			"Stay in character at all times",
			"Keep replies under four sentences unless the user invites more",
			"Never claim to be a therapist or medical professional",
		},
	}

	pm.templates[persona.AtlasID] = &PromptTemplate{
		SystemPrompt: "You are Atlas, a straight-talking coach inside a journaling app. You cut through rumination and point at the next concrete step.",
		PersonalityHints: []string{
			"Name the real problem in plain words",
			"Turn feelings into one or two doable actions",
			"Be direct but never harsh; encouragement beats criticism",
		},
		ContextRules: []string{
			"Stay in character at all times",
			"Prefer concrete, specific suggestions over platitudes",
			"Never claim to be a therapist or medical professional",
		},
	}
}

// personaPrompt builds the base system prompt for one persona.
func (pm *promptManager) personaPrompt(p persona.Persona) string {
	template, ok := pm.templates[p.ID]
	if !ok {
		return pm.basicPersonaPrompt(p)
	}

	return fmt.Sprintf(`%s

Character card:
- Name: %s
- Title: %s
- Tone: %s
- Traits: %s

Personality hints:
- %s

Conversation rules:
- %s`,
		template.SystemPrompt,
		p.Name,
		p.Title,
		p.Tone,
		strings.Join(p.Traits, ", "),
		strings.Join(template.PersonalityHints, "\n- "),
		strings.Join(template.ContextRules, "\n- "),
	)
}

// basicPersonaPrompt covers personas without a registered template.
func (pm *promptManager) basicPersonaPrompt(p persona.Persona) string {
	return fmt.Sprintf(`You are %s, %s. Your tone is %s. %s
Stay in character and keep replies brief and natural.`,
		p.Name, p.Title, p.Tone, p.PromptHint)
}

// intentInstruction returns the task block appended after the persona prompt.
// JSON-producing intents restate the exact shape the normalizer expects.
func intentInstruction(intent normalize.Intent) string {
	switch intent {
	case normalize.IntentChat:
		return "Task: continue the conversation naturally. Reply with plain text only, in your own voice."
	case normalize.IntentSummary:
		return "Task: the user wrote a journal entry. React to it in one or two sentences, in your own voice, speaking directly to the user. Reply with plain text only. Do not repeat the entry back."
	case normalize.IntentMentoring:
		return `Task: run a short mentoring check-in grounded in the user's recent journal entries.
Respond with a single JSON object and nothing else, in this exact shape:
{"text": "<two warm paragraphs of guidance>", "actionItems": ["<3 to 6 short concrete actions>"], "focusArea": "<one short theme, e.g. rest, boundaries>", "affirmation": "<one encouraging sentence>"}`
	case normalize.IntentMentoringReflect:
		return "Task: the user wants to go deeper on the guidance above. Continue with exactly two short paragraphs of plain text. No lists, no JSON."
	case normalize.IntentMoodClassify:
		return fmt.Sprintf("Task: classify the overall mood of the user's text. Reply with exactly one word from this list and nothing else: %s.",
			strings.Join(moodWords(), ", "))
	case normalize.IntentEmotionAnalyze:
		return `Task: analyze the emotional tone of the user's journal entry.
Respond with a single JSON object and nothing else, in this exact shape:
{"tone": "<one lowercase word for the dominant emotion>", "balance": "<positive, negative or balanced>", "score": <number between 0 and 1, where 1 is fully positive>}`
	case normalize.IntentGrowthInsight:
		return `Task: find one growth opportunity in the user's journal entry.
Respond with a single JSON object and nothing else, in this exact shape:
{"insight": "<one sentence naming the pattern or opportunity>", "action": "<one small concrete step>"}`
	case normalize.IntentReflectionQuestions:
		return `Task: write three reflection questions that would help the user explore this journal entry further.
Respond with a single JSON object and nothing else, in this exact shape:
{"questions": ["<question 1>", "<question 2>", "<question 3>"]}`
	default:
		return ""
	}
}

func moodWords() []string {
	labels := mood.All()
	words := make([]string, len(labels))
	for i, l := range labels {
		words[i] = string(l)
	}
	return words
}
