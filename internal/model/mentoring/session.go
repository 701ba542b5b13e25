package mentoring

import "time"

// Output is the normalized structured result of a mentoring invocation.
// ActionItems always carries between 3 and 6 items; the normalizer pads or
// truncates before the output reaches this type.
type Output struct {
	Text        string   `json:"text"`
	ActionItems []string `json:"actionItems"`
	FocusArea   string   `json:"focusArea,omitempty"`
	Affirmation string   `json:"affirmation,omitempty"`
}

// Session is one "Guide Me" mentoring run. Reflections append to Output.Text
// until the server-side cap is reached; once EndedAt is set the session is
// terminal and rejects further mutation.
type Session struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	PersonaID          string     `json:"personaId"`
	PreMood            string     `json:"preMood,omitempty"`
	PostMood           string     `json:"postMood,omitempty"`
	JournalSampleCount int        `json:"journalSampleCount"`
	ReflectCount       int        `json:"reflectCount"`
	Output             Output     `json:"output"`
	StartedAt          time.Time  `json:"startedAt"`
	EndedAt            *time.Time `json:"endedAt,omitempty"`
}

// Ended reports whether the session is terminal.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}
