package chat

import "time"

// Turn roles. System turns are produced by safety short-circuits and are
// persisted so the transcript shows what the user actually saw.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is a single immutable entry in a (user, persona) conversation log.
type Turn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PersonaID string    `json:"personaId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion,omitempty"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
