package mood

import (
	"log/slog"
	"strings"

	"buddy/src/rng"
)

// rule maps a keyword set to the mood it triggers. Rules are evaluated in
// order and the first match wins.
type rule struct {
	mood     Mood
	keywords []string
}

var rules = []rule{
	{mood: Happy, keywords: []string{"love", "great", "thanks", "awesome", "yay", "good"}},
	{mood: Annoyed, keywords: []string{"hate", "bad", "angry", "upset", "frustrated"}},
	{mood: Sad, keywords: []string{"tired", "sad", "lonely", "down", "depressed"}},
}

// Classifier derives a mood from a chat message using keyword rules.
type Classifier struct {
	src    rng.Source
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil src uses rng.Default.
func NewClassifier(src rng.Source, logger *slog.Logger) *Classifier {
	if src == nil {
		src = rng.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{src: src, logger: logger}
}

// Classify returns the mood for message given the buddy's prior mood.
// Matching is a case-insensitive substring test. When no keyword matches,
// the result is prior or Neutral with equal probability.
func (c *Classifier) Classify(message string, prior Mood) (result Mood) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("mood classification failed", "panic", r)
			result = Neutral
		}
	}()

	msg := strings.ToLower(message)
	for _, r := range rules {
		for _, word := range r.keywords {
			if strings.Contains(msg, word) {
				return r.mood
			}
		}
	}

	if prior == "" {
		prior = Neutral
	}
	return []Mood{prior, Neutral}[c.src.IntN(2)]
}
