package mood

import "strings"

// Label is a member of the fixed mood vocabulary the product understands.
type Label string

const (
	Happy    Label = "happy"
	Grateful Label = "grateful"
	Calm     Label = "calm"
	Okay     Label = "okay"
	Excited  Label = "excited"
	Anxious  Label = "anxious"
	Stressed Label = "stressed"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Tired    Label = "tired"
)

// Default is the label used whenever classification cannot decide.
const Default = Okay

// All lists the closed label set in display order.
func All() []Label {
	return []Label{Happy, Grateful, Calm, Okay, Excited, Anxious, Stressed, Sad, Angry, Tired}
}

// Valid reports whether raw is a member of the closed label set.
func Valid(raw string) bool {
	_, ok := keywordBuckets[Label(raw)]
	return ok || Label(raw) == Okay
}

var keywordBuckets = map[Label][]string{
	Happy: {
		"happy", "joy", "great day", "wonderful", "smiled", "laughing", "laughed",
		"amazing", "glad", "delighted", "fun",
	},
	Grateful: {
		"grateful", "thankful", "appreciate", "blessed", "lucky to have",
	},
	Calm: {
		"calm", "peaceful", "relaxed", "at ease", "quiet evening", "serene", "settled",
	},
	Excited: {
		"excited", "can't wait", "thrilled", "pumped", "looking forward", "hyped",
	},
	Anxious: {
		"anxious", "worried", "nervous", "on edge", "dread", "panicking", "uneasy", "overthinking",
	},
	Stressed: {
		"stressed", "overwhelmed", "too much", "deadline", "pressure", "burned out", "burnout", "swamped",
	},
	Sad: {
		"sad", "down", "cried", "crying", "lonely", "miss", "heartbroken", "empty", "hopeless", "depressed",
	},
	Angry: {
		"angry", "furious", "annoyed", "frustrated", "mad at", "fed up", "irritated", "unfair",
	},
	Tired: {
		"tired", "exhausted", "drained", "no energy", "sleepy", "worn out", "couldn't sleep",
	},
}

// Classify is the heuristic mood detector used when no chat model is
// configured or the model call fails. It scores keyword hits per label and
// returns the best-scoring one, or Default when nothing matches.
func Classify(text string) Label {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Default
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 2
			}
		}
	}

	// Exclamation marks lean positive only when nothing negative scored.
	if n := strings.Count(text, "!"); n > 0 && scores[Sad] == 0 && scores[Angry] == 0 && scores[Anxious] == 0 {
		scores[Excited] += n
	}

	best := Default
	bestScore := 0
	for label, s := range scores {
		if s > bestScore {
			best = label
			bestScore = s
		}
	}
	return best
}
