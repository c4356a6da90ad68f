package mood

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"buddy/src/rng"
)

func TestClassifyKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		prior   Mood
		want    Mood
	}{
		{"positive", "thanks so much!", Sad, Happy},
		{"positive uppercase", "THIS IS AWESOME", Annoyed, Happy},
		{"anger", "I hate mondays", Neutral, Annoyed},
		{"sadness", "feeling lonely tonight", Happy, Sad},
		{"positive beats anger", "I love it but I'm angry", Neutral, Happy},
		{"anger beats sadness", "bad day, so tired", Neutral, Annoyed},
		{"substring match", "goodbye", Sad, Happy},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewClassifier(rng.NewSequence(0.9), nil)
			assert.Equal(t, tt.want, c.Classify(tt.message, tt.prior))
		})
	}
}

func TestClassifyPositiveIgnoresPrior(t *testing.T) {
	c := NewClassifier(nil, nil)
	for _, prior := range []Mood{Neutral, Happy, Sad, Annoyed} {
		assert.Equal(t, Happy, c.Classify("thanks", prior))
	}
}

func TestClassifyNoMatchChoosesBetweenPriorAndNeutral(t *testing.T) {
	c := NewClassifier(rng.NewSequence(0.1, 0.7), nil)

	assert.Equal(t, Sad, c.Classify("what's for dinner?", Sad))
	assert.Equal(t, Neutral, c.Classify("what's for dinner?", Sad))
}

func TestClassifyNoMatchNeverInventsMood(t *testing.T) {
	c := NewClassifier(rng.Seeded(7), nil)
	for i := 0; i < 200; i++ {
		got := c.Classify("the weather is cloudy", Annoyed)
		assert.Contains(t, []Mood{Neutral, Annoyed}, got)
	}
}

func TestClassifyEmptyPrior(t *testing.T) {
	c := NewClassifier(rng.NewSequence(0.0), nil)
	assert.Equal(t, Neutral, c.Classify("hmm", ""))
}

type panicSource struct{}

func (panicSource) IntN(int) int { panic("broken source") }
func (panicSource) Float64() float64 { panic("broken source") }

func TestClassifyRecoversToNeutral(t *testing.T) {
	c := NewClassifier(panicSource{}, nil)
	assert.Equal(t, Neutral, c.Classify("no keywords here", Sad))
}

func TestParse(t *testing.T) {
	m, ok := Parse(" Happy ")
	assert.True(t, ok)
	assert.Equal(t, Happy, m)

	m, ok = Parse("confused")
	assert.False(t, ok)
	assert.Equal(t, Neutral, m)

	assert.False(t, Confused.Persistable())
}
