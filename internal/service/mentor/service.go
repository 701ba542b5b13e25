package mentor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/manu-sreesanth/echojournal/internal/analysis/mood"
	"github.com/manu-sreesanth/echojournal/internal/analysis/normalize"
	"github.com/manu-sreesanth/echojournal/internal/config"
	"github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/mentoring"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
	"github.com/manu-sreesanth/echojournal/internal/service/ai"
)

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrSessionEnded    = errors.New("mentoring session already ended")
	ErrReflectLimit    = errors.New("reflection limit reached for this session")
)

// Store is the persistence surface the mentoring service needs.
type Store interface {
	CreateMentoringSession(ctx context.Context, sess mentoring.Session) (mentoring.Session, error)
	GetMentoringSession(ctx context.Context, id string) (mentoring.Session, error)
	UpdateMentoringSession(ctx context.Context, sess mentoring.Session) error
	ListEntries(ctx context.Context, userID string, limit int) ([]journal.Entry, error)
	GetProfile(ctx context.Context, userID string) (profile.Memory, error)
}

// Responder is the model-facing surface used for mentoring calls.
type Responder interface {
	Complete(ctx context.Context, req ai.Request) (string, error)
}

// Service runs guided mentoring sessions: a structured opening grounded in
// recent journal entries, a capped number of reflection continuations, and a
// terminal end step.
type Service struct {
	store    Store
	ai       Responder
	personas persona.Store
	cfg      config.MentoringConfig
}

// NewService wires the mentoring service.
func NewService(store Store, responder Responder, personas persona.Store, cfg config.MentoringConfig) *Service {
	return &Service{store: store, ai: responder, personas: personas, cfg: cfg}
}

// Start opens a session. Recent entries and the profile feed the prompt;
// when either is missing the session proceeds with whatever context exists
// rather than failing. Model failure degrades to the fixed mentoring output.
func (s *Service) Start(ctx context.Context, userID, personaID, preMood string) (mentoring.Session, error) {
	if userID == "" {
		return mentoring.Session{}, ErrUserRequired
	}
	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return mentoring.Session{}, ErrPersonaNotFound
	}

	mem, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		log.Printf("[mentor] profile read failed for user=%s: %v", userID, err)
		mem = profile.Memory{UserID: userID}
	}

	entries, err := s.store.ListEntries(ctx, userID, s.cfg.SampleEntries)
	if err != nil {
		log.Printf("[mentor] entries read failed for user=%s: %v", userID, err)
		entries = nil
	}

	// Only closed mood labels reach the prompt; free-text preMood is stored
	// on the session but never dispatched.
	query := "I'd like a mentoring check-in based on my recent journaling."
	if mood.Valid(preMood) {
		query = fmt.Sprintf("%s Right now I'm feeling %s.", query, preMood)
	}

	raw, err := s.ai.Complete(ctx, ai.Request{
		Intent:  normalize.IntentMentoring,
		Persona: p,
		Facts:   ai.FactMessages(ai.Facts{Profile: mem, RecentEntries: entries}),
		Query:   query,
	})
	if err != nil {
		log.Printf("[mentor] mentoring call failed for user=%s: %v", userID, err)
		raw = ""
	}

	session := mentoring.Session{
		UserID:             userID,
		PersonaID:          personaID,
		PreMood:            preMood,
		JournalSampleCount: len(entries),
		Output:             normalize.Mentoring(raw),
	}
	return s.store.CreateMentoringSession(ctx, session)
}

// Reflect appends one continuation to the session's guidance. The server
// enforces the continuation cap and terminal-session immutability.
func (s *Service) Reflect(ctx context.Context, id, message string) (mentoring.Session, error) {
	session, err := s.store.GetMentoringSession(ctx, id)
	if err != nil {
		return mentoring.Session{}, err
	}
	if session.Ended() {
		return mentoring.Session{}, ErrSessionEnded
	}
	if session.ReflectCount >= s.cfg.MaxReflections {
		return mentoring.Session{}, ErrReflectLimit
	}

	if strings.TrimSpace(message) == "" {
		message = "Tell me more about how to apply this."
	}

	continuation := s.generateContinuation(ctx, session, message)

	session.Output.Text = session.Output.Text + "\n\n" + continuation
	session.ReflectCount++
	if err := s.store.UpdateMentoringSession(ctx, session); err != nil {
		return mentoring.Session{}, err
	}
	return session, nil
}

// End closes the session, recording the post-session mood. Ending twice is
// rejected.
func (s *Service) End(ctx context.Context, id, postMood string) (mentoring.Session, error) {
	session, err := s.store.GetMentoringSession(ctx, id)
	if err != nil {
		return mentoring.Session{}, err
	}
	if session.Ended() {
		return mentoring.Session{}, ErrSessionEnded
	}

	session.PostMood = postMood
	now := time.Now().UTC()
	session.EndedAt = &now
	if err := s.store.UpdateMentoringSession(ctx, session); err != nil {
		return mentoring.Session{}, err
	}
	return session, nil
}

// Get returns one session.
func (s *Service) Get(ctx context.Context, id string) (mentoring.Session, error) {
	return s.store.GetMentoringSession(ctx, id)
}

func (s *Service) generateContinuation(ctx context.Context, session mentoring.Session, message string) string {
	if reply, crisis := ai.Guard(message); crisis {
		return reply
	}

	p, ok := s.personas.FindByID(session.PersonaID)
	if !ok {
		p = persona.Persona{ID: session.PersonaID, Name: "your mentor"}
	}

	raw, err := s.ai.Complete(ctx, ai.Request{
		Intent:  normalize.IntentMentoringReflect,
		Persona: p,
		History: []*schema.Message{schema.AssistantMessage(session.Output.Text, nil)},
		Query:   message,
	})
	if err != nil {
		log.Printf("[mentor] reflect call failed for session=%s: %v", session.ID, err)
		raw = ""
	}
	return normalize.MentoringReflect(raw)
}
