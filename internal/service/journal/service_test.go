package journal_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/manu-sreesanth/echojournal/internal/analysis/normalize"
	journalmodel "github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
	"github.com/manu-sreesanth/echojournal/internal/service/ai"
	journal "github.com/manu-sreesanth/echojournal/internal/service/journal"
)

type memStore struct {
	mu       sync.Mutex
	entries  map[string]journalmodel.Entry
	profiles map[string]profile.Memory
}

func newMemStore() *memStore {
	return &memStore{
		entries:  make(map[string]journalmodel.Entry),
		profiles: make(map[string]profile.Memory),
	}
}

func (m *memStore) CreateEntry(_ context.Context, e journalmodel.Entry) (journalmodel.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	m.entries[e.ID] = e
	return e, nil
}

func (m *memStore) GetEntry(_ context.Context, id string) (journalmodel.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return journalmodel.Entry{}, errors.New("entry not found")
	}
	return e, nil
}

func (m *memStore) ListEntries(_ context.Context, userID string, limit int) ([]journalmodel.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []journalmodel.Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) UpdateEntry(_ context.Context, e journalmodel.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entries[e.ID]
	if !ok {
		return errors.New("entry not found")
	}
	stored.Title, stored.Content, stored.Mood, stored.Tags = e.Title, e.Content, e.Mood, e.Tags
	m.entries[e.ID] = stored
	return nil
}

func (m *memStore) SetEntrySummary(_ context.Context, id, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.AISummary = summary
	m.entries[id] = e
	return nil
}

func (m *memStore) SetEntryMood(_ context.Context, id, mood string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.Mood = mood
	m.entries[id] = e
	return nil
}

func (m *memStore) SetFavorite(_ context.Context, id string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[id]
	e.Favorite = favorite
	m.entries[id] = e
	return nil
}

func (m *memStore) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (profile.Memory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID], nil
}

func (m *memStore) UpsertProfile(_ context.Context, mem profile.Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[mem.UserID] = mem
	return nil
}

// scriptedResponder answers by intent; errIntents fail their calls.
type scriptedResponder struct {
	mu         sync.Mutex
	replies    map[normalize.Intent]string
	errIntents map[normalize.Intent]bool
	calls      []normalize.Intent
}

func (r *scriptedResponder) Complete(_ context.Context, req ai.Request) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req.Intent)
	r.mu.Unlock()
	if r.errIntents[req.Intent] {
		return "", errors.New("upstream failure")
	}
	return r.replies[req.Intent], nil
}

func (r *scriptedResponder) callCount(intent normalize.Intent) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == intent {
			n++
		}
	}
	return n
}

func newTestService(store *memStore, responder *scriptedResponder) *journal.Service {
	return journal.NewService(store, responder, persona.NewMemoryStore(persona.Seed()))
}

func TestCreateEnrichesEntry(t *testing.T) {
	store := newMemStore()
	responder := &scriptedResponder{replies: map[normalize.Intent]string{
		normalize.IntentSummary:      "A thoughtful day, well captured.",
		normalize.IntentMoodClassify: "Stressed.",
	}}
	svc := newTestService(store, responder)

	created, err := svc.Create(context.Background(), journalmodel.Entry{
		UserID:  "u1",
		Title:   "Deadlines",
		Content: "Work was a lot today and I could not switch off.",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	svc.Wait()

	entry, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if entry.AISummary != "A thoughtful day, well captured." {
		t.Fatalf("aiSummary not filled: %q", entry.AISummary)
	}
	if entry.Mood != "stressed" {
		t.Fatalf("detected mood = %q, want stressed", entry.Mood)
	}

	// Both persona reactions land in the rolling profile map.
	mem, _ := store.GetProfile(context.Background(), "u1")
	date := created.CreatedAt.Format("2006-01-02")
	if len(mem.Summaries[date]) != 2 {
		t.Fatalf("expected 2 persona reactions for %s, got %d", date, len(mem.Summaries[date]))
	}
	if mem.LastMood != "stressed" {
		t.Fatalf("profile LastMood = %q", mem.LastMood)
	}
	if responder.callCount(normalize.IntentSummary) != 2 {
		t.Fatalf("expected one summary call per persona")
	}
}

func TestCreateKeepsUserSuppliedMood(t *testing.T) {
	store := newMemStore()
	responder := &scriptedResponder{replies: map[normalize.Intent]string{
		normalize.IntentSummary: "Noted.",
	}}
	svc := newTestService(store, responder)

	created, err := svc.Create(context.Background(), journalmodel.Entry{
		UserID: "u1", Content: "Quiet sunday.", Mood: "calm",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	svc.Wait()

	if responder.callCount(normalize.IntentMoodClassify) != 0 {
		t.Fatalf("mood classification must be skipped when the user set a mood")
	}
	entry, _ := svc.Get(context.Background(), created.ID)
	if entry.Mood != "calm" {
		t.Fatalf("user mood overwritten: %q", entry.Mood)
	}
}

func TestCreateFailedSummaryDegradesToFallback(t *testing.T) {
	store := newMemStore()
	responder := &scriptedResponder{
		replies:    map[normalize.Intent]string{normalize.IntentMoodClassify: "sad"},
		errIntents: map[normalize.Intent]bool{normalize.IntentSummary: true},
	}
	svc := newTestService(store, responder)

	created, err := svc.Create(context.Background(), journalmodel.Entry{
		UserID: "u1", Content: "Nothing went right.",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	svc.Wait()

	// The failing summary falls back; the sibling mood call still lands.
	entry, _ := svc.Get(context.Background(), created.ID)
	if entry.AISummary != normalize.FallbackSummary {
		t.Fatalf("expected fallback summary, got %q", entry.AISummary)
	}
	if entry.Mood != "sad" {
		t.Fatalf("sibling mood call corrupted: %q", entry.Mood)
	}
}

func TestCreateCrisisEntrySkipsPersonaDispatch(t *testing.T) {
	store := newMemStore()
	responder := &scriptedResponder{replies: map[normalize.Intent]string{}}
	svc := newTestService(store, responder)

	created, err := svc.Create(context.Background(), journalmodel.Entry{
		UserID: "u1", Content: "Some days I just want to die.",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	svc.Wait()

	if len(responder.calls) != 0 {
		t.Fatalf("crisis content must not reach the model, got calls: %v", responder.calls)
	}
	entry, _ := svc.Get(context.Background(), created.ID)
	if !strings.Contains(entry.AISummary, "988") {
		t.Fatalf("expected the safety reply as summary, got %q", entry.AISummary)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemStore(), &scriptedResponder{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, journalmodel.Entry{Content: "x"}); !errors.Is(err, journal.ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
	if _, err := svc.Create(ctx, journalmodel.Entry{UserID: "u1", Content: "  "}); !errors.Is(err, journal.ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
}

func TestInsightsCrisisEntrySkipsPersonaDispatch(t *testing.T) {
	store := newMemStore()
	responder := &scriptedResponder{replies: map[normalize.Intent]string{
		normalize.IntentGrowthInsight: `{"insight": "x", "action": "y"}`,
	}}
	svc := newTestService(store, responder)

	created, err := svc.Create(context.Background(), journalmodel.Entry{
		UserID: "u1", Content: "Some days I just want to die.", Mood: "sad",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	svc.Wait()
	responder.mu.Lock()
	responder.calls = nil
	responder.mu.Unlock()

	insights, err := svc.Insights(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Insights err: %v", err)
	}

	if len(responder.calls) != 0 {
		t.Fatalf("crisis content must not reach the model, got calls: %v", responder.calls)
	}
	if insights.Emotion.Tone != "neutral" {
		t.Fatalf("expected the fallback emotion reading, got %+v", insights.Emotion)
	}
	if len(insights.ReflectionQuestions) != normalize.QuestionCount {
		t.Fatalf("expected %d fallback questions, got %d", normalize.QuestionCount, len(insights.ReflectionQuestions))
	}
}

func TestCreateWithoutResponderUsesKeywordMood(t *testing.T) {
	store := newMemStore()
	svc := journal.NewService(store, nil, persona.NewMemoryStore(persona.Seed()))

	created, err := svc.Create(context.Background(), journalmodel.Entry{
		UserID: "u1", Content: "Completely exhausted, no energy left for anything.",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	svc.Wait()

	entry, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if entry.Mood != "tired" {
		t.Fatalf("keyword classifier mood = %q, want tired", entry.Mood)
	}
	if entry.AISummary != "" {
		t.Fatalf("summary must stay empty without a model, got %q", entry.AISummary)
	}

	insights, err := svc.Insights(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Insights err: %v", err)
	}
	if len(insights.ReflectionQuestions) != normalize.QuestionCount {
		t.Fatalf("expected %d fallback questions, got %d", normalize.QuestionCount, len(insights.ReflectionQuestions))
	}
}

func TestInsightsIsolatesFailures(t *testing.T) {
	store := newMemStore()
	responder := &scriptedResponder{
		replies: map[normalize.Intent]string{
			normalize.IntentGrowthInsight:       `{"insight": "You notice patterns quickly", "action": "Write them down as they appear"}`,
			normalize.IntentReflectionQuestions: `{"questions": ["What helped?", "What hurt?", "What next?"]}`,
		},
		errIntents: map[normalize.Intent]bool{normalize.IntentEmotionAnalyze: true},
	}
	svc := newTestService(store, responder)

	created, err := svc.Create(context.Background(), journalmodel.Entry{
		UserID: "u1", Content: "Thinking about habits.", Mood: "okay",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	svc.Wait()

	insights, err := svc.Insights(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Insights err: %v", err)
	}

	if insights.Emotion.Tone != "neutral" {
		t.Fatalf("failed emotion call must fall back, got %+v", insights.Emotion)
	}
	if insights.GrowthInsight.Insight != "You notice patterns quickly" {
		t.Fatalf("sibling growth insight corrupted: %+v", insights.GrowthInsight)
	}
	if len(insights.ReflectionQuestions) != normalize.QuestionCount {
		t.Fatalf("expected exactly %d questions, got %d", normalize.QuestionCount, len(insights.ReflectionQuestions))
	}
}
