package mentoring

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/manu-sreesanth/echojournal/internal/config"
	journalModel "github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/mentoring"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
	"github.com/manu-sreesanth/echojournal/internal/service/ai"
	mentorservice "github.com/manu-sreesanth/echojournal/internal/service/mentor"
	"github.com/manu-sreesanth/echojournal/internal/store"
)

type stubStore struct {
	sessions map[string]mentoring.Session
}

func newStubStore() *stubStore {
	return &stubStore{sessions: make(map[string]mentoring.Session)}
}

func (s *stubStore) CreateMentoringSession(_ context.Context, sess mentoring.Session) (mentoring.Session, error) {
	sess.ID = uuid.NewString()
	sess.StartedAt = time.Now().UTC()
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *stubStore) GetMentoringSession(_ context.Context, id string) (mentoring.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return mentoring.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *stubStore) UpdateMentoringSession(_ context.Context, sess mentoring.Session) error {
	if _, ok := s.sessions[sess.ID]; !ok {
		return store.ErrNotFound
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubStore) ListEntries(_ context.Context, userID string, limit int) ([]journalModel.Entry, error) {
	return nil, nil
}

func (s *stubStore) GetProfile(_ context.Context, userID string) (profile.Memory, error) {
	return profile.Memory{UserID: userID}, nil
}

type stubResponder struct{}

func (stubResponder) Complete(_ context.Context, req ai.Request) (string, error) {
	return `{"text": "Focus on one thing at a time.", "actionItems": ["Pick the thing", "Block an hour", "Review at night"], "focusArea": "focus", "affirmation": "You can do this."}`, nil
}

func setupRouter() (*chi.Mux, *stubStore) {
	st := newStubStore()
	cfg := config.MentoringConfig{MaxReflections: 3, SampleEntries: 5}
	svc := mentorservice.NewService(st, stubResponder{}, persona.NewMemoryStore(persona.Seed()), cfg)

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r, st
}

func startSession(t *testing.T, r *chi.Mux) mentoring.Session {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{
		"userId": "u1", "personaId": persona.AtlasID, "preMood": "anxious",
	})
	req := httptest.NewRequest(http.MethodPost, "/mentoring/start", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var session mentoring.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("invalid start response: %v", err)
	}
	return session
}

func TestStartSession(t *testing.T) {
	r, _ := setupRouter()
	session := startSession(t, r)

	if session.Output.FocusArea != "focus" {
		t.Fatalf("unexpected focus area %q", session.Output.FocusArea)
	}
	if session.PreMood != "anxious" {
		t.Fatalf("preMood not recorded: %q", session.PreMood)
	}
}

func TestStartUnknownPersona(t *testing.T) {
	r, _ := setupRouter()
	payload, _ := json.Marshal(map[string]string{"userId": "u1", "personaId": "ghost"})

	req := httptest.NewRequest(http.MethodPost, "/mentoring/start", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestReflectThenEnd(t *testing.T) {
	r, _ := setupRouter()
	session := startSession(t, r)

	payload, _ := json.Marshal(map[string]string{"message": "how do I start"})
	req := httptest.NewRequest(http.MethodPost, "/mentoring/"+session.ID+"/reflect", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("reflect: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	payload, _ = json.Marshal(map[string]string{"postMood": "calm"})
	req = httptest.NewRequest(http.MethodPost, "/mentoring/"+session.ID+"/end", bytes.NewReader(payload))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d", resp.Code)
	}

	// The session is terminal now.
	payload, _ = json.Marshal(map[string]string{"message": "more"})
	req = httptest.NewRequest(http.MethodPost, "/mentoring/"+session.ID+"/reflect", bytes.NewReader(payload))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("reflect after end: expected 409, got %d", resp.Code)
	}
}

func TestGetUnknownSession(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/mentoring/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
