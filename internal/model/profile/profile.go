package profile

import "time"

// Work status values accepted by onboarding.
const (
	WorkStatusStudent    = "student"
	WorkStatusEmployed   = "employed"
	WorkStatusFreelancer = "freelancer"
	WorkStatusUnemployed = "unemployed"
	WorkStatusOther      = "other"
)

// MaxLifeGoals caps the ordered goal list.
const MaxLifeGoals = 10

// Memory is the per-user memory profile the context assembler reads. Every
// section is optional; absent sections are omitted from assembled prompts
// rather than rendered as placeholders.
type Memory struct {
	UserID    string                    `json:"userId"`
	Personal  *PersonalDetails          `json:"personal,omitempty"`
	Work      *WorkDetails              `json:"work,omitempty"`
	LifeGoals []string                  `json:"lifeGoals,omitempty"`
	LastMood  string                    `json:"lastMood,omitempty"`
	Summaries map[string][]EntrySummary `json:"summaries,omitempty"` // date (2006-01-02) -> persona reactions
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// PersonalDetails holds onboarding facts about the user.
type PersonalDetails struct {
	Name     string   `json:"name,omitempty"`
	Nickname string   `json:"nickname,omitempty"`
	Age      int      `json:"age,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	Location string   `json:"location,omitempty"`
	Hobbies  []string `json:"hobbies,omitempty"`
	Context  string   `json:"context,omitempty"`
}

// WorkDetails holds work/study facts plus free-form extra fields.
type WorkDetails struct {
	Status  string            `json:"status,omitempty"`
	Context string            `json:"context,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// EntrySummary is one persona's reaction to a journal entry, kept in the
// rolling per-date summary map.
type EntrySummary struct {
	PersonaID string    `json:"personaId"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

// Empty reports whether the personal section carries any usable field.
func (p *PersonalDetails) Empty() bool {
	if p == nil {
		return true
	}
	return p.Name == "" && p.Nickname == "" && p.Age == 0 && p.Gender == "" &&
		p.Location == "" && len(p.Hobbies) == 0 && p.Context == ""
}

// Empty reports whether the work section carries any usable field.
func (w *WorkDetails) Empty() bool {
	if w == nil {
		return true
	}
	return w.Status == "" && w.Context == "" && len(w.Fields) == 0
}

// AppendSummary records a persona reaction under the given date, newest last.
func (m *Memory) AppendSummary(date string, s EntrySummary) {
	if m.Summaries == nil {
		m.Summaries = make(map[string][]EntrySummary)
	}
	m.Summaries[date] = append(m.Summaries[date], s)
}

// ClampGoals trims the goal list to MaxLifeGoals, keeping order.
func (m *Memory) ClampGoals() {
	if len(m.LifeGoals) > MaxLifeGoals {
		m.LifeGoals = m.LifeGoals[:MaxLifeGoals]
	}
}
