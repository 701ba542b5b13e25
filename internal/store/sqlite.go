// Package store persists conversations, journal entries, memory profiles and
// mentoring sessions in SQLite. The rest of the system consumes it through
// narrow per-service interfaces so tests can swap in fakes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/manu-sreesanth/echojournal/internal/model/chat"
	"github.com/manu-sreesanth/echojournal/internal/model/journal"
	"github.com/manu-sreesanth/echojournal/internal/model/mentoring"
	"github.com/manu-sreesanth/echojournal/internal/model/profile"
)

// ErrNotFound is returned for lookups of missing rows.
var ErrNotFound = errors.New("not found")

// SQLite is the canonical persistent store.
type SQLite struct {
	db *sql.DB
}

// Open creates/opens the database at path and applies the schema.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process service. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLite{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			persona_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			emotion TEXT NOT NULL DEFAULT '',
			intent TEXT NOT NULL DEFAULT '',
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS turns_pair_idx ON turns(user_id, persona_id, created_at_ms DESC);`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			mood TEXT NOT NULL DEFAULT '',
			tags_json TEXT NOT NULL DEFAULT '[]',
			ai_summary TEXT NOT NULL DEFAULT '',
			favorite INTEGER NOT NULL DEFAULT 0,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS journal_user_idx ON journal_entries(user_id, created_at_ms DESC);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			profile_json TEXT NOT NULL,
			revision INTEGER NOT NULL DEFAULT 1,
			updated_at_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS mentoring_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			persona_id TEXT NOT NULL,
			pre_mood TEXT NOT NULL DEFAULT '',
			post_mood TEXT NOT NULL DEFAULT '',
			journal_sample_count INTEGER NOT NULL DEFAULT 0,
			reflect_count INTEGER NOT NULL DEFAULT 0,
			output_json TEXT NOT NULL DEFAULT '{}',
			started_at_ms INTEGER NOT NULL,
			ended_at_ms INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS mentoring_user_idx ON mentoring_sessions(user_id, started_at_ms DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init sqlite schema failed on %q: %w", trimSQL(stmt), err)
		}
	}
	return nil
}

func trimSQL(stmt string) string {
	line := strings.TrimSpace(stmt)
	if len(line) > 96 {
		return line[:96] + "..."
	}
	return line
}

func nowMS() int64 { return time.Now().UnixMilli() }

// AppendTurn inserts one conversation turn and returns it with generated
// fields filled in. Ordering is preserved via the millisecond timestamp.
func (s *SQLite) AppendTurn(ctx context.Context, turn chat.Turn) (chat.Turn, error) {
	if strings.TrimSpace(turn.UserID) == "" || strings.TrimSpace(turn.PersonaID) == "" {
		return chat.Turn{}, fmt.Errorf("append turn: missing user or persona id")
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO turns(id, user_id, persona_id, role, content, emotion, intent, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.UserID, turn.PersonaID, turn.Role, turn.Content, turn.Emotion, turn.Intent, turn.CreatedAt.UnixMilli())
	if err != nil {
		return chat.Turn{}, fmt.Errorf("append turn: %w", err)
	}
	return turn, nil
}

// ListTurns returns up to limit of the newest turns for a (user, persona)
// pair, oldest first.
func (s *SQLite) ListTurns(ctx context.Context, userID, personaID string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, persona_id, role, content, emotion, intent, created_at_ms
FROM turns
WHERE user_id = ? AND persona_id = ?
ORDER BY created_at_ms DESC, id DESC
LIMIT ?`, userID, personaID, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	out := make([]chat.Turn, 0, limit)
	for rows.Next() {
		var t chat.Turn
		var createdMS int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.PersonaID, &t.Role, &t.Content, &t.Emotion, &t.Intent, &createdMS); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt = time.UnixMilli(createdMS).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func encodeStrings(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// CreateEntry inserts a journal entry, generating id and timestamps.
func (s *SQLite) CreateEntry(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	if strings.TrimSpace(e.UserID) == "" {
		return journal.Entry{}, fmt.Errorf("create entry: missing user id")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = e.CreatedAt

	_, err := s.db.ExecContext(ctx, `
INSERT INTO journal_entries(id, user_id, title, content, mood, tags_json, ai_summary, favorite, created_at_ms, updated_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Content, e.Mood, encodeStrings(e.Tags), e.AISummary, boolInt(e.Favorite),
		e.CreatedAt.UnixMilli(), e.UpdatedAt.UnixMilli())
	if err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	return e, nil
}

// GetEntry fetches one entry by id.
func (s *SQLite) GetEntry(ctx context.Context, id string) (journal.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, title, content, mood, tags_json, ai_summary, favorite, created_at_ms, updated_at_ms
FROM journal_entries WHERE id = ?`, id)
	return scanEntry(row)
}

// ListEntries returns up to limit of a user's newest entries, newest first.
func (s *SQLite) ListEntries(ctx context.Context, userID string, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, title, content, mood, tags_json, ai_summary, favorite, created_at_ms, updated_at_ms
FROM journal_entries
WHERE user_id = ?
ORDER BY created_at_ms DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]journal.Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (journal.Entry, error) {
	var e journal.Entry
	var tagsRaw string
	var favorite int
	var createdMS, updatedMS int64
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.Mood, &tagsRaw, &e.AISummary, &favorite, &createdMS, &updatedMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return journal.Entry{}, ErrNotFound
		}
		return journal.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Tags = decodeStrings(tagsRaw)
	e.Favorite = favorite != 0
	e.CreatedAt = time.UnixMilli(createdMS).UTC()
	e.UpdatedAt = time.UnixMilli(updatedMS).UTC()
	return e, nil
}

// UpdateEntry rewrites the user-editable fields of an entry.
func (s *SQLite) UpdateEntry(ctx context.Context, e journal.Entry) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE journal_entries
SET title = ?, content = ?, mood = ?, tags_json = ?, updated_at_ms = ?
WHERE id = ?`,
		e.Title, e.Content, e.Mood, encodeStrings(e.Tags), nowMS(), e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireAffected(res, "update entry")
}

// SetEntrySummary fills the async ai_summary field.
func (s *SQLite) SetEntrySummary(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE journal_entries SET ai_summary = ?, updated_at_ms = ? WHERE id = ?`, summary, nowMS(), id)
	if err != nil {
		return fmt.Errorf("set entry summary: %w", err)
	}
	return requireAffected(res, "set entry summary")
}

// SetEntryMood records a detected mood without touching other fields.
func (s *SQLite) SetEntryMood(ctx context.Context, id, mood string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE journal_entries SET mood = ?, updated_at_ms = ? WHERE id = ?`, mood, nowMS(), id)
	if err != nil {
		return fmt.Errorf("set entry mood: %w", err)
	}
	return requireAffected(res, "set entry mood")
}

// SetFavorite toggles the favorite flag.
func (s *SQLite) SetFavorite(ctx context.Context, id string, favorite bool) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE journal_entries SET favorite = ?, updated_at_ms = ? WHERE id = ?`, boolInt(favorite), nowMS(), id)
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	return requireAffected(res, "set favorite")
}

// DeleteEntry removes an entry permanently.
func (s *SQLite) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireAffected(res, "delete entry")
}

// GetProfile returns the stored memory profile, or an empty profile when the
// user has none yet. Missing data is never an error here; the context
// assembler treats it as "fields absent".
func (s *SQLite) GetProfile(ctx context.Context, userID string) (profile.Memory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT profile_json FROM profiles WHERE user_id = ?`, userID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profile.Memory{UserID: userID}, nil
		}
		return profile.Memory{}, fmt.Errorf("get profile: %w", err)
	}

	var m profile.Memory
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		// A corrupt document degrades to an empty profile rather than
		// failing every request that assembles context.
		return profile.Memory{UserID: userID}, nil
	}
	m.UserID = userID
	return m, nil
}

// UpsertProfile stores the full profile document, bumping its revision.
func (s *SQLite) UpsertProfile(ctx context.Context, m profile.Memory) error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("upsert profile: missing user id")
	}
	m.ClampGoals()
	m.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("upsert profile encode: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles(user_id, profile_json, revision, updated_at_ms)
VALUES(?, ?, 1, ?)
ON CONFLICT(user_id) DO UPDATE SET
	profile_json = excluded.profile_json,
	revision = profiles.revision + 1,
	updated_at_ms = excluded.updated_at_ms`,
		m.UserID, string(raw), nowMS())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// CreateMentoringSession inserts a new session.
func (s *SQLite) CreateMentoringSession(ctx context.Context, sess mentoring.Session) (mentoring.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now().UTC()
	}
	output, err := json.Marshal(sess.Output)
	if err != nil {
		return mentoring.Session{}, fmt.Errorf("create mentoring session encode: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO mentoring_sessions(id, user_id, persona_id, pre_mood, post_mood, journal_sample_count, reflect_count, output_json, started_at_ms, ended_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		sess.ID, sess.UserID, sess.PersonaID, sess.PreMood, sess.PostMood,
		sess.JournalSampleCount, sess.ReflectCount, string(output), sess.StartedAt.UnixMilli())
	if err != nil {
		return mentoring.Session{}, fmt.Errorf("create mentoring session: %w", err)
	}
	return sess, nil
}

// GetMentoringSession fetches one session by id.
func (s *SQLite) GetMentoringSession(ctx context.Context, id string) (mentoring.Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, persona_id, pre_mood, post_mood, journal_sample_count, reflect_count, output_json, started_at_ms, ended_at_ms
FROM mentoring_sessions WHERE id = ?`, id)
	return scanMentoringSession(row, "get mentoring session")
}

// LastMentoringSession fetches the user's most recently started session, or
// ErrNotFound when the user has none.
func (s *SQLite) LastMentoringSession(ctx context.Context, userID string) (mentoring.Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, persona_id, pre_mood, post_mood, journal_sample_count, reflect_count, output_json, started_at_ms, ended_at_ms
FROM mentoring_sessions WHERE user_id = ? ORDER BY started_at_ms DESC LIMIT 1`, userID)
	return scanMentoringSession(row, "last mentoring session")
}

func scanMentoringSession(row *sql.Row, op string) (mentoring.Session, error) {
	var sess mentoring.Session
	var outputRaw string
	var startedMS, endedMS int64
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.PersonaID, &sess.PreMood, &sess.PostMood,
		&sess.JournalSampleCount, &sess.ReflectCount, &outputRaw, &startedMS, &endedMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mentoring.Session{}, ErrNotFound
		}
		return mentoring.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal([]byte(outputRaw), &sess.Output); err != nil {
		return mentoring.Session{}, fmt.Errorf("%s decode: %w", op, err)
	}
	sess.StartedAt = time.UnixMilli(startedMS).UTC()
	if endedMS > 0 {
		t := time.UnixMilli(endedMS).UTC()
		sess.EndedAt = &t
	}
	return sess, nil
}

// UpdateMentoringSession rewrites the mutable fields of a session. The
// mentor service owns the immutability rules; the store just persists.
func (s *SQLite) UpdateMentoringSession(ctx context.Context, sess mentoring.Session) error {
	output, err := json.Marshal(sess.Output)
	if err != nil {
		return fmt.Errorf("update mentoring session encode: %w", err)
	}
	endedMS := int64(0)
	if sess.EndedAt != nil {
		endedMS = sess.EndedAt.UnixMilli()
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE mentoring_sessions
SET post_mood = ?, reflect_count = ?, output_json = ?, ended_at_ms = ?
WHERE id = ?`,
		sess.PostMood, sess.ReflectCount, string(output), endedMS, sess.ID)
	if err != nil {
		return fmt.Errorf("update mentoring session: %w", err)
	}
	return requireAffected(res, "update mentoring session")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
