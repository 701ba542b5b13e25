package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	chatmodel "github.com/manu-sreesanth/echojournal/internal/model/chat"
	"github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/mentoring"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
	"github.com/manu-sreesanth/echojournal/internal/service/ai"
	chatservice "github.com/manu-sreesanth/echojournal/internal/service/chat"
	"github.com/manu-sreesanth/echojournal/internal/store"
)

type stubStore struct {
	turns []chatmodel.Turn
}

func (s *stubStore) AppendTurn(_ context.Context, turn chatmodel.Turn) (chatmodel.Turn, error) {
	s.turns = append(s.turns, turn)
	return turn, nil
}

func (s *stubStore) ListTurns(_ context.Context, userID, personaID string, limit int) ([]chatmodel.Turn, error) {
	var out []chatmodel.Turn
	for _, turn := range s.turns {
		if turn.UserID == userID && turn.PersonaID == personaID {
			out = append(out, turn)
		}
	}
	return out, nil
}

func (s *stubStore) GetProfile(_ context.Context, userID string) (profile.Memory, error) {
	return profile.Memory{UserID: userID}, nil
}

func (s *stubStore) ListEntries(_ context.Context, userID string, limit int) ([]journal.Entry, error) {
	return nil, nil
}

func (s *stubStore) LastMentoringSession(_ context.Context, userID string) (mentoring.Session, error) {
	return mentoring.Session{}, store.ErrNotFound
}

type stubResponder struct {
	reply string
}

func (s *stubResponder) Complete(_ context.Context, _ ai.Request) (string, error) {
	return s.reply, nil
}

func (s *stubResponder) Stream(_ context.Context, _ ai.Request) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(s.reply, nil)}), nil
}

func (s *stubResponder) StreamingEnabled() bool  { return false }
func (s *stubResponder) HistoryTokenBudget() int { return 1400 }

func setupRouter(reply string) (*chi.Mux, *stubStore) {
	store := &stubStore{}
	svc := chatservice.NewService(store, &stubResponder{reply: reply}, persona.NewMemoryStore(persona.Seed()))

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r, store
}

func TestHandleMessage(t *testing.T) {
	r, store := setupRouter("It sounds like you need a pause.")
	payload, _ := json.Marshal(map[string]string{"userId": "u1", "message": "long week"})

	req := httptest.NewRequest(http.MethodPost, "/chat/"+persona.MiraID, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var turn chatmodel.Turn
	if err := json.Unmarshal(resp.Body.Bytes(), &turn); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if turn.Content != "It sounds like you need a pause." {
		t.Fatalf("unexpected reply: %q", turn.Content)
	}
	if len(store.turns) != 2 {
		t.Fatalf("expected a persisted exchange, got %d turns", len(store.turns))
	}
}

func TestHandleMessageUnknownPersona(t *testing.T) {
	r, _ := setupRouter("x")
	payload, _ := json.Marshal(map[string]string{"userId": "u1", "message": "hi"})

	req := httptest.NewRequest(http.MethodPost, "/chat/ghost", bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandleMessageMissingUser(t *testing.T) {
	r, _ := setupRouter("x")
	payload, _ := json.Marshal(map[string]string{"message": "hi"})

	req := httptest.NewRequest(http.MethodPost, "/chat/"+persona.MiraID, bytes.NewReader(payload))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	r, store := setupRouter("noted")
	store.turns = []chatmodel.Turn{
		{UserID: "u1", PersonaID: persona.MiraID, Role: chatmodel.RoleUser, Content: "hello"},
		{UserID: "u1", PersonaID: persona.MiraID, Role: chatmodel.RoleAssistant, Content: "hi there"},
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/"+persona.MiraID+"/history?userId=u1", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var turns []chatmodel.Turn
	if err := json.Unmarshal(resp.Body.Bytes(), &turns); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
}

func TestHandleHistoryRequiresUser(t *testing.T) {
	r, _ := setupRouter("x")

	req := httptest.NewRequest(http.MethodGet, "/chat/"+persona.MiraID+"/history", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
