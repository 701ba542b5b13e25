package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/manu-sreesanth/echojournal/internal/analysis/budget"
	"github.com/manu-sreesanth/echojournal/internal/model/chat"
	"github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/mentoring"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
)

// Facts is the profile-derived material woven into a prompt. All fields are
// optional; callers pass whatever the store reads produced and the renderer
// omits what is missing.
type Facts struct {
	Profile       profile.Memory
	RecentEntries []journal.Entry
	LastMentoring *mentoring.Output
}

// FactMessages renders the fact blocks as system messages in a fixed order:
// personal details, work details, life goals, latest mood, recent entry
// summaries, last mentoring output. A block whose source is absent is omitted
// entirely; a partially filled personal block renders "Unknown" for its
// missing structured fields so siblings still surface.
func FactMessages(f Facts) []*schema.Message {
	var messages []*schema.Message

	if block := personalBlock(f.Profile.Personal); block != "" {
		messages = append(messages, schema.SystemMessage(block))
	}
	if block := workBlock(f.Profile.Work); block != "" {
		messages = append(messages, schema.SystemMessage(block))
	}
	if block := goalsBlock(f.Profile.LifeGoals); block != "" {
		messages = append(messages, schema.SystemMessage(block))
	}
	if f.Profile.LastMood != "" {
		messages = append(messages, schema.SystemMessage(
			fmt.Sprintf("The user's most recently recorded mood is %q.", f.Profile.LastMood)))
	}
	if block := entriesBlock(f.RecentEntries); block != "" {
		messages = append(messages, schema.SystemMessage(block))
	}
	if block := mentoringBlock(f.LastMentoring); block != "" {
		messages = append(messages, schema.SystemMessage(block))
	}

	return messages
}

// assembleMessages renders a full prompt as explicit messages, in the same
// order the chat chain's template uses: system prompt, fact blocks, pruned
// history, then the new user turn. It pins the chain's message order for the
// package tests.
func assembleMessages(system string, facts, history []*schema.Message, query string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(facts)+len(history)+2)
	messages = append(messages, schema.SystemMessage(system))
	messages = append(messages, facts...)
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(query))
	return messages
}

// HistoryMessages converts stored turns into model messages, pruning to the
// token budget first. System turns in the log (crisis replies) are not
// replayed to the model.
func HistoryMessages(turns []chat.Turn, maxTokens int) []*schema.Message {
	pruned := budget.Prune(turns, maxTokens)
	if len(pruned) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(pruned))
	for _, turn := range pruned {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return history
}

func personalBlock(p *profile.PersonalDetails) string {
	if p.Empty() {
		return ""
	}

	name := p.Name
	if name == "" {
		name = p.Nickname
	}
	if name == "" {
		name = "Unknown"
	}

	var b strings.Builder
	b.WriteString("What you know about the user:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	if p.Nickname != "" && p.Nickname != name {
		fmt.Fprintf(&b, "- Preferred name: %s\n", p.Nickname)
	}
	fmt.Fprintf(&b, "- Age: %s\n", orUnknown(ageString(p.Age)))
	fmt.Fprintf(&b, "- Gender: %s\n", orUnknown(p.Gender))
	fmt.Fprintf(&b, "- Location: %s\n", orUnknown(p.Location))
	if len(p.Hobbies) > 0 {
		fmt.Fprintf(&b, "- Hobbies: %s\n", strings.Join(p.Hobbies, ", "))
	}
	if p.Context != "" {
		fmt.Fprintf(&b, "- About them: %s\n", p.Context)
	}
	return strings.TrimRight(b.String(), "\n")
}

func workBlock(w *profile.WorkDetails) string {
	if w.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("The user's work and study situation:\n")
	if w.Status != "" {
		fmt.Fprintf(&b, "- Status: %s\n", w.Status)
	}
	if w.Context != "" {
		fmt.Fprintf(&b, "- Details: %s\n", w.Context)
	}
	// Sorted so the rendered block is stable across requests.
	keys := make([]string, 0, len(w.Fields))
	for k := range w.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, w.Fields[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func goalsBlock(goals []string) string {
	if len(goals) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("The user's life goals:\n")
	for i, goal := range goals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, goal)
	}
	return strings.TrimRight(b.String(), "\n")
}

func entriesBlock(entries []journal.Entry) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Recent journal entries, newest first:\n")
	for _, entry := range entries {
		line := entry.AISummary
		if line == "" {
			line = truncate(entry.Content, 200)
		}
		date := entry.CreatedAt.Format("2006-01-02")
		if entry.Mood != "" {
			fmt.Fprintf(&b, "- %s (mood: %s): %s\n", date, entry.Mood, line)
		} else {
			fmt.Fprintf(&b, "- %s: %s\n", date, line)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func mentoringBlock(out *mentoring.Output) string {
	if out == nil || strings.TrimSpace(out.Text) == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("Guidance from the user's last mentoring session:\n")
	fmt.Fprintf(&b, "- Focus area: %s\n", out.FocusArea)
	fmt.Fprintf(&b, "- Advice: %s\n", truncate(out.Text, 400))
	return strings.TrimRight(b.String(), "\n")
}

func ageString(age int) string {
	if age <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", age)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
