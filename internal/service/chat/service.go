package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/manu-sreesanth/echojournal/internal/analysis/normalize"
	"github.com/manu-sreesanth/echojournal/internal/model/chat"
	"github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/mentoring"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
	"github.com/manu-sreesanth/echojournal/internal/service/ai"
	"github.com/manu-sreesanth/echojournal/internal/store"
)

var (
	ErrPersonaNotFound = errors.New("persona not found")
	ErrUserRequired    = errors.New("user id is required")
	ErrMessageRequired = errors.New("message is required")
)

// historyFetchLimit bounds how many stored turns are read before pruning.
const historyFetchLimit = 50

// recentEntryLimit bounds how many journal entries feed the fact blocks.
const recentEntryLimit = 3

// Store is the slice of persistence the conversation service needs.
type Store interface {
	AppendTurn(ctx context.Context, turn chat.Turn) (chat.Turn, error)
	ListTurns(ctx context.Context, userID, personaID string, limit int) ([]chat.Turn, error)
	GetProfile(ctx context.Context, userID string) (profile.Memory, error)
	ListEntries(ctx context.Context, userID string, limit int) ([]journal.Entry, error)
	LastMentoringSession(ctx context.Context, userID string) (mentoring.Session, error)
}

// Responder is the model-facing surface the conversation service calls.
type Responder interface {
	Complete(ctx context.Context, req ai.Request) (string, error)
	Stream(ctx context.Context, req ai.Request) (*schema.StreamReader[*schema.Message], error)
	StreamingEnabled() bool
	HistoryTokenBudget() int
}

// Service handles persona conversations: crisis screening, context assembly,
// model invocation and the append-only turn log.
type Service struct {
	store    Store
	ai       Responder
	personas persona.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires the conversation service.
func NewService(store Store, responder Responder, personas persona.Store) *Service {
	return &Service{
		store:    store,
		ai:       responder,
		personas: personas,
		locks:    make(map[string]*sync.Mutex),
	}
}

// StreamResult carries the outcome of preparing a streamed reply. When Crisis
// is set the exchange is already persisted and Reply holds the full text;
// otherwise the caller consumes Stream and finishes with FinishStream.
type StreamResult struct {
	Crisis bool
	Reply  string
	Stream *schema.StreamReader[*schema.Message]
}

// Respond runs one full chat exchange and returns the persisted assistant
// turn. Model failure degrades to the chat fallback text rather than an
// error; only validation and store failures surface.
func (s *Service) Respond(ctx context.Context, userID, personaID, message string) (chat.Turn, error) {
	p, err := s.validate(userID, personaID, message)
	if err != nil {
		return chat.Turn{}, err
	}

	lock := s.pairLock(userID, personaID)
	lock.Lock()
	defer lock.Unlock()

	if reply, crisis := ai.Guard(message); crisis {
		return s.saveCrisisExchange(ctx, userID, personaID, message, reply)
	}

	reply := s.generateReply(ctx, p, userID, message)
	return s.saveExchange(ctx, userID, personaID, message, reply)
}

// PrepareStream screens and persists the user turn, then opens the model
// stream. Crisis matches are answered and persisted immediately.
func (s *Service) PrepareStream(ctx context.Context, userID, personaID, message string) (StreamResult, error) {
	p, err := s.validate(userID, personaID, message)
	if err != nil {
		return StreamResult{}, err
	}

	lock := s.pairLock(userID, personaID)
	lock.Lock()
	defer lock.Unlock()

	if reply, crisis := ai.Guard(message); crisis {
		if _, err := s.saveCrisisExchange(ctx, userID, personaID, message, reply); err != nil {
			return StreamResult{}, err
		}
		return StreamResult{Crisis: true, Reply: reply}, nil
	}

	// Without streaming, answer in one piece over the same surface.
	if !s.ai.StreamingEnabled() {
		reply := s.generateReply(ctx, p, userID, message)
		if _, err := s.saveExchange(ctx, userID, personaID, message, reply); err != nil {
			return StreamResult{}, err
		}
		return StreamResult{Reply: reply}, nil
	}

	req := s.buildRequest(ctx, p, userID, message)
	stream, err := s.ai.Stream(ctx, req)
	if err != nil {
		// Same degradation as the non-streaming path.
		reply := normalize.Text(normalize.IntentChat, "")
		log.Printf("[chat] stream failed for user=%s persona=%s: %v", userID, personaID, err)
		if _, err := s.saveExchange(ctx, userID, personaID, message, reply); err != nil {
			return StreamResult{}, err
		}
		return StreamResult{Reply: reply}, nil
	}

	if _, err := s.appendTurn(ctx, userID, personaID, chat.RoleUser, message); err != nil {
		stream.Close()
		return StreamResult{}, err
	}

	return StreamResult{Stream: stream}, nil
}

// FinishStream persists the assistant turn once the caller has drained the
// stream. The accumulated text passes through the chat normalizer so an empty
// stream still yields the fallback reply.
func (s *Service) FinishStream(ctx context.Context, userID, personaID, accumulated string) (chat.Turn, error) {
	reply := normalize.Text(normalize.IntentChat, accumulated)

	lock := s.pairLock(userID, personaID)
	lock.Lock()
	defer lock.Unlock()

	return s.appendTurn(ctx, userID, personaID, chat.RoleAssistant, reply)
}

// History returns the stored transcript for one (user, persona) pair.
func (s *Service) History(ctx context.Context, userID, personaID string, limit int) ([]chat.Turn, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	if _, ok := s.personas.FindByID(personaID); !ok {
		return nil, ErrPersonaNotFound
	}
	if limit <= 0 {
		limit = historyFetchLimit
	}
	return s.store.ListTurns(ctx, userID, personaID, limit)
}

// StreamingEnabled reports whether streamed replies are available.
func (s *Service) StreamingEnabled() bool {
	return s.ai.StreamingEnabled()
}

func (s *Service) validate(userID, personaID, message string) (persona.Persona, error) {
	if userID == "" {
		return persona.Persona{}, ErrUserRequired
	}
	if message == "" {
		return persona.Persona{}, ErrMessageRequired
	}
	p, ok := s.personas.FindByID(personaID)
	if !ok {
		return persona.Persona{}, ErrPersonaNotFound
	}
	return p, nil
}

func (s *Service) generateReply(ctx context.Context, p persona.Persona, userID, message string) string {
	req := s.buildRequest(ctx, p, userID, message)

	raw, err := s.ai.Complete(ctx, req)
	if err != nil {
		log.Printf("[chat] completion failed for user=%s persona=%s: %v", userID, p.ID, err)
		raw = ""
	}
	return normalize.Text(normalize.IntentChat, raw)
}

// buildRequest assembles the prompt material. Store read failures degrade to
// absent blocks instead of failing the exchange.
func (s *Service) buildRequest(ctx context.Context, p persona.Persona, userID, message string) ai.Request {
	mem, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		log.Printf("[chat] profile read failed for user=%s: %v", userID, err)
		mem = profile.Memory{UserID: userID}
	}

	turns, err := s.store.ListTurns(ctx, userID, p.ID, historyFetchLimit)
	if err != nil {
		log.Printf("[chat] history read failed for user=%s persona=%s: %v", userID, p.ID, err)
		turns = nil
	}

	entries, err := s.store.ListEntries(ctx, userID, recentEntryLimit)
	if err != nil {
		log.Printf("[chat] entries read failed for user=%s: %v", userID, err)
		entries = nil
	}

	var lastMentoring *mentoring.Output
	switch sess, err := s.store.LastMentoringSession(ctx, userID); {
	case err == nil && sess.Output.Text != "":
		lastMentoring = &sess.Output
	case err != nil && !errors.Is(err, store.ErrNotFound):
		log.Printf("[chat] mentoring read failed for user=%s: %v", userID, err)
	}

	return ai.Request{
		Intent:  normalize.IntentChat,
		Persona: p,
		Facts: ai.FactMessages(ai.Facts{
			Profile:       mem,
			RecentEntries: entries,
			LastMentoring: lastMentoring,
		}),
		History: ai.HistoryMessages(turns, s.ai.HistoryTokenBudget()),
		Query:   message,
	}
}

func (s *Service) saveExchange(ctx context.Context, userID, personaID, message, reply string) (chat.Turn, error) {
	if _, err := s.appendTurn(ctx, userID, personaID, chat.RoleUser, message); err != nil {
		return chat.Turn{}, err
	}
	return s.appendTurn(ctx, userID, personaID, chat.RoleAssistant, reply)
}

// saveCrisisExchange persists the safety reply as a system turn so the
// transcript shows what the user saw without replaying the reply into later
// model context.
func (s *Service) saveCrisisExchange(ctx context.Context, userID, personaID, message, reply string) (chat.Turn, error) {
	if _, err := s.appendTurn(ctx, userID, personaID, chat.RoleUser, message); err != nil {
		return chat.Turn{}, err
	}
	return s.appendTurn(ctx, userID, personaID, chat.RoleSystem, reply)
}

func (s *Service) appendTurn(ctx context.Context, userID, personaID, role, content string) (chat.Turn, error) {
	turn, err := s.store.AppendTurn(ctx, chat.Turn{
		UserID:    userID,
		PersonaID: personaID,
		Role:      role,
		Content:   content,
		Intent:    string(normalize.IntentChat),
	})
	if err != nil {
		return chat.Turn{}, fmt.Errorf("append turn: %w", err)
	}
	return turn, nil
}

// pairLock returns the mutex serializing appends for one (user, persona)
// pair so concurrent requests cannot interleave the transcript.
func (s *Service) pairLock(userID, personaID string) *sync.Mutex {
	key := userID + "\x00" + personaID

	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
