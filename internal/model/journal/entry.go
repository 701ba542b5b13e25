package journal

import "time"

// Entry is a single journal entry. AISummary is filled in asynchronously
// after the entry is created, so readers must tolerate it being empty.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	AISummary string    `json:"aiSummary,omitempty"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Insights bundles the on-demand analysis results for one entry. Each field
// degrades independently to its fallback when the backing model call fails.
type Insights struct {
	Emotion             EmotionReading `json:"emotion"`
	GrowthInsight       GrowthInsight  `json:"growthInsight"`
	ReflectionQuestions []string       `json:"reflectionQuestions"`
}

// EmotionReading describes the emotional tone of an entry.
type EmotionReading struct {
	Tone    string  `json:"tone"`
	Balance string  `json:"balance"`
	Score   float64 `json:"score"`
}

// GrowthInsight pairs an observation with one concrete next step.
type GrowthInsight struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
}
