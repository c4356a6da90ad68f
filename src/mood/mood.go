package mood

import "strings"

// Mood is a buddy's short-lived emotional label.
type Mood string

const (
	Neutral Mood = "neutral"
	Happy   Mood = "happy"
	Sad     Mood = "sad"
	Annoyed Mood = "annoyed"

	// Confused is only reported when reply generation fails outright. It is
	// never persisted.
	Confused Mood = "confused"
)

// Persistable reports whether m is one of the moods stored per buddy.
func (m Mood) Persistable() bool {
	switch m {
	case Neutral, Happy, Sad, Annoyed:
		return true
	}
	return false
}

func (m Mood) String() string {
	return string(m)
}

// Parse converts a stored label into a Mood. Unknown labels yield Neutral
// and false.
func Parse(s string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Persistable() {
		return Neutral, false
	}
	return m, true
}
