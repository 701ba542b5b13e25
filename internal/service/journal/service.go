package journal

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/manu-sreesanth/echojournal/internal/analysis/mood"
	"github.com/manu-sreesanth/echojournal/internal/analysis/normalize"
	"github.com/manu-sreesanth/echojournal/internal/analysis/safety"
	"github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
	"github.com/manu-sreesanth/echojournal/internal/service/ai"
)

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrContentRequired = errors.New("entry content is required")
)

// enrichTimeout bounds the whole background enrichment of one entry.
const enrichTimeout = 90 * time.Second

// Store is the persistence surface the journal service needs.
type Store interface {
	CreateEntry(ctx context.Context, e journal.Entry) (journal.Entry, error)
	GetEntry(ctx context.Context, id string) (journal.Entry, error)
	ListEntries(ctx context.Context, userID string, limit int) ([]journal.Entry, error)
	UpdateEntry(ctx context.Context, e journal.Entry) error
	SetEntrySummary(ctx context.Context, id, summary string) error
	SetEntryMood(ctx context.Context, id, mood string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	DeleteEntry(ctx context.Context, id string) error
	GetProfile(ctx context.Context, userID string) (profile.Memory, error)
	UpsertProfile(ctx context.Context, m profile.Memory) error
}

// Responder is the model-facing surface used for enrichment. A nil Responder
// is valid: entry CRUD is pure store work, summaries are skipped and mood
// detection falls back to the keyword classifier.
type Responder interface {
	Complete(ctx context.Context, req ai.Request) (string, error)
}

// Service owns journal entries and their model-driven enrichment: per-persona
// reactions, mood detection and on-demand insights.
type Service struct {
	store    Store
	ai       Responder
	personas persona.Store

	wg sync.WaitGroup
}

// NewService wires the journal service.
func NewService(store Store, responder Responder, personas persona.Store) *Service {
	return &Service{store: store, ai: responder, personas: personas}
}

// Create persists a new entry and kicks off enrichment in the background.
// The caller gets the bare entry back immediately; aiSummary and detected
// mood land asynchronously.
func (s *Service) Create(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	if e.UserID == "" {
		return journal.Entry{}, ErrUserRequired
	}
	if strings.TrimSpace(e.Content) == "" {
		return journal.Entry{}, ErrContentRequired
	}

	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return journal.Entry{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// The request context dies with the response; enrichment gets its own.
		ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()
		s.enrich(ctx, created)
	}()

	return created, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id string) (journal.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// List returns a user's entries, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]journal.Entry, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.store.ListEntries(ctx, userID, limit)
}

// Update rewrites an entry's editable fields. The id and userID are fixed at
// creation; aiSummary survives edits untouched.
func (s *Service) Update(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	if strings.TrimSpace(e.Content) == "" {
		return journal.Entry{}, ErrContentRequired
	}
	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return journal.Entry{}, err
	}
	return s.store.GetEntry(ctx, e.ID)
}

// SetFavorite toggles the favorite flag.
func (s *Service) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return s.store.SetFavorite(ctx, id, favorite)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteEntry(ctx, id)
}

// Insights runs the on-demand analysis fan-out for one entry: emotion
// reading, growth insight and reflection questions, issued concurrently.
// Each call is isolated; a failing one degrades to its own fallback without
// touching its siblings. Crisis text is never dispatched; the fixed fallback
// shapes come back without a model call.
func (s *Service) Insights(ctx context.Context, id string) (journal.Insights, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return journal.Insights{}, err
	}

	query := entryQuery(entry)
	if safety.DetectCrisis(query) {
		return journal.Insights{
			Emotion:             normalize.Emotion(""),
			GrowthInsight:       normalize.GrowthInsight(""),
			ReflectionQuestions: normalize.ReflectionQuestions(""),
		}, nil
	}

	p := s.analysisPersona()

	var insights journal.Insights
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		raw := s.complete(ctx, normalize.IntentEmotionAnalyze, p, query)
		insights.Emotion = normalize.Emotion(raw)
	}()
	go func() {
		defer wg.Done()
		raw := s.complete(ctx, normalize.IntentGrowthInsight, p, query)
		insights.GrowthInsight = normalize.GrowthInsight(raw)
	}()
	go func() {
		defer wg.Done()
		raw := s.complete(ctx, normalize.IntentReflectionQuestions, p, query)
		insights.ReflectionQuestions = normalize.ReflectionQuestions(raw)
	}()

	wg.Wait()
	return insights, nil
}

// Wait blocks until in-flight background enrichment finishes. Used by
// shutdown and tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// enrich fills aiSummary, detected mood and the profile's rolling summary
// map. Persona reactions run concurrently; each degrades independently.
func (s *Service) enrich(ctx context.Context, entry journal.Entry) {
	query := entryQuery(entry)

	// Crisis text is never dispatched to a persona. The entry gets the fixed
	// safety reply as its summary and the heuristic mood label.
	if safety.DetectCrisis(entry.Content) {
		if err := s.store.SetEntrySummary(ctx, entry.ID, safety.Message+"\n\n"+safety.HotlineHint); err != nil {
			log.Printf("[journal] crisis summary write failed for entry=%s: %v", entry.ID, err)
		}
		if entry.Mood == "" {
			s.writeMood(ctx, entry.ID, entry.UserID, mood.Classify(entry.Content))
		}
		return
	}

	personas := s.personas.List()
	summaries := make([]string, len(personas))
	detected := mood.Label("")

	var wg sync.WaitGroup
	for i, p := range personas {
		wg.Add(1)
		go func(i int, p persona.Persona) {
			defer wg.Done()
			raw := s.complete(ctx, normalize.IntentSummary, p, query)
			summaries[i] = normalize.Text(normalize.IntentSummary, raw)
		}(i, p)
	}

	if entry.Mood == "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw := s.complete(ctx, normalize.IntentMoodClassify, s.analysisPersona(), query)
			// The keyword classifier backstops an unusable model answer.
			detected = normalize.Mood(raw, mood.Classify(entry.Content))
		}()
	}

	wg.Wait()

	if len(summaries) > 0 && summaries[0] != "" {
		if err := s.store.SetEntrySummary(ctx, entry.ID, summaries[0]); err != nil {
			log.Printf("[journal] summary write failed for entry=%s: %v", entry.ID, err)
		}
	}
	if detected != "" {
		s.writeMood(ctx, entry.ID, entry.UserID, detected)
	}

	s.recordReactions(ctx, entry, personas, summaries)
}

// recordReactions appends each persona's reaction to the profile's rolling
// per-date summary map.
func (s *Service) recordReactions(ctx context.Context, entry journal.Entry, personas []persona.Persona, summaries []string) {
	mem, err := s.store.GetProfile(ctx, entry.UserID)
	if err != nil {
		log.Printf("[journal] profile read failed for user=%s: %v", entry.UserID, err)
		return
	}

	date := entry.CreatedAt.Format("2006-01-02")
	now := time.Now().UTC()
	for i, p := range personas {
		if summaries[i] == "" {
			continue
		}
		mem.AppendSummary(date, profile.EntrySummary{
			PersonaID: p.ID,
			Summary:   summaries[i],
			CreatedAt: now,
		})
	}

	if err := s.store.UpsertProfile(ctx, mem); err != nil {
		log.Printf("[journal] profile write failed for user=%s: %v", entry.UserID, err)
	}
}

// writeMood stores the detected mood on the entry and as the profile's
// latest mood.
func (s *Service) writeMood(ctx context.Context, entryID, userID string, label mood.Label) {
	if err := s.store.SetEntryMood(ctx, entryID, string(label)); err != nil {
		log.Printf("[journal] mood write failed for entry=%s: %v", entryID, err)
	}

	mem, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		log.Printf("[journal] profile read failed for user=%s: %v", userID, err)
		return
	}
	mem.LastMood = string(label)
	if err := s.store.UpsertProfile(ctx, mem); err != nil {
		log.Printf("[journal] profile write failed for user=%s: %v", userID, err)
	}
}

// complete issues one isolated model call; failure and an unconfigured model
// both return an empty raw string so the intent's normalizer produces its
// fallback.
func (s *Service) complete(ctx context.Context, intent normalize.Intent, p persona.Persona, query string) string {
	if s.ai == nil {
		return ""
	}
	raw, err := s.ai.Complete(ctx, ai.Request{Intent: intent, Persona: p, Query: query})
	if err != nil {
		log.Printf("[journal] %s call failed: %v", intent, err)
		return ""
	}
	return raw
}

// analysisPersona picks the voice for the analytic intents, preferring Mira.
func (s *Service) analysisPersona() persona.Persona {
	if p, ok := s.personas.FindByID(persona.MiraID); ok {
		return p
	}
	list := s.personas.List()
	if len(list) > 0 {
		return list[0]
	}
	return persona.Persona{}
}

func entryQuery(entry journal.Entry) string {
	if strings.TrimSpace(entry.Title) == "" {
		return entry.Content
	}
	return entry.Title + "\n\n" + entry.Content
}
