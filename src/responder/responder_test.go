package responder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bErrors "buddy/src/errors"
	"buddy/src/mood"
	"buddy/src/personality"
	"buddy/src/rng"
)

var (
	friendly     = personality.TraitVector{0.9, 0.8, 0.4, 0.7, 0.6}
	sarcastic    = personality.TraitVector{0.2, 0.9, 0.5, 0.3, 0.4}
	romantic     = personality.TraitVector{0.7, 0.6, 0.5, 0.9, 0.7}
	motivational = personality.TraitVector{0.8, 0.3, 0.9, 0.6, 0.5}
)

func TestGenerateExact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		vec   personality.TraitVector
		mood  mood.Mood
		draws []float64
		want  string
	}{
		{
			name:  "friendly happy gets humor marker",
			vec:   friendly,
			mood:  mood.Happy,
			draws: []float64{0.0},
			want:  "That makes me smile 😄 😏",
		},
		{
			name:  "uniform vector is dry",
			vec:   personality.Uniform(0.5),
			mood:  mood.Neutral,
			draws: []float64{0.5},
			want:  "Hmm, interesting! (trying to sound interested 😅)",
		},
		{
			name:  "excitement shouts and cheers",
			vec:   motivational,
			mood:  mood.Happy,
			draws: []float64{0.34, 0.1, 0.1},
			want:  "I’M LOVING THIS ENERGY! 🎉",
		},
		{
			name:  "excitement draws can both miss",
			vec:   motivational,
			mood:  mood.Happy,
			draws: []float64{0.34, 0.9, 0.9},
			want:  "I’m loving this energy!",
		},
		{
			name:  "empathy and curiosity on sad",
			vec:   romantic,
			mood:  mood.Sad,
			draws: []float64{0.0, 0.4, 0.9},
			want:  "I’m here for you ❤️ I really understand how you feel. How does that make you feel?",
		},
		{
			name:  "curiosity draw misses",
			vec:   romantic,
			mood:  mood.Annoyed,
			draws: []float64{0.0, 0.6},
			want:  "Ugh, seriously?",
		},
		{
			name:  "no humor when sad",
			vec:   sarcastic,
			mood:  mood.Sad,
			draws: []float64{0.7},
			want:  "It’s okay to feel down sometimes. (trying to sound interested 😅)",
		},
		{
			name:  "unmapped mood uses generic phrase",
			vec:   personality.Uniform(0.5),
			mood:  mood.Confused,
			draws: []float64{0.99},
			want:  "Okay. (trying to sound interested 😅)",
		},
		{
			name:  "single component vector",
			vec:   personality.TraitVector{0.9},
			mood:  mood.Happy,
			draws: []float64{0.0},
			want:  "That makes me smile 😄",
		},
		{
			name:  "legacy three component vector",
			vec:   personality.TraitVector{0.6, 0.9, 0.2},
			mood:  mood.Neutral,
			draws: []float64{0.9},
			want:  "I see what you mean. 😏 (trying to sound interested 😅)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			seq := rng.NewSequence(tt.draws...)
			got, err := New(seq).Generate(tt.vec, tt.mood, "hello")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.draws), seq.Used(), "unexpected number of random draws")
		})
	}
}

func TestGenerateEmptyVector(t *testing.T) {
	got, err := New(nil).Generate(personality.TraitVector{}, mood.Happy, "hi")
	assert.ErrorIs(t, err, bErrors.ErrEmptyVector)
	assert.Equal(t, Apology, got)
}

type panicSource struct{}

func (panicSource) IntN(int) int { panic("exhausted") }
func (panicSource) Float64() float64 { panic("exhausted") }

func TestGenerateRecoversPanic(t *testing.T) {
	got, err := New(panicSource{}).Generate(friendly, mood.Happy, "hi")
	assert.Error(t, err)
	assert.Equal(t, Apology, got)
}

func TestGenerateNeverEmpty(t *testing.T) {
	r := New(rng.Seeded(1))
	vectors := []personality.TraitVector{
		friendly, sarcastic, romantic, motivational,
		personality.Uniform(0.5), personality.Uniform(1), personality.Uniform(0),
		{0.1}, {0.9, 0.9},
	}
	moods := []mood.Mood{mood.Neutral, mood.Happy, mood.Sad, mood.Annoyed, mood.Confused, "weird"}

	for i := 0; i < 20; i++ {
		for _, v := range vectors {
			for _, m := range moods {
				got, err := r.Generate(v, m, "anything")
				require.NoError(t, err)
				assert.NotEmpty(t, got)
			}
		}
	}
}

func TestToneFor(t *testing.T) {
	assert.Equal(t, ToneFriendly, ToneFor(friendly))
	assert.Equal(t, ToneDry, ToneFor(sarcastic))
	assert.Equal(t, ToneDry, ToneFor(personality.Uniform(0.5)))
	assert.Equal(t, ToneDry, ToneFor(personality.TraitVector{0.6}))
	assert.Equal(t, ToneDry, ToneFor(nil))
}
