// Package responder builds template replies from a trait vector and a mood.
// It is the guaranteed fallback when no generative backend can answer.
package responder

import (
	"fmt"
	"strings"

	bErrors "buddy/src/errors"
	"buddy/src/mood"
	"buddy/src/personality"
	"buddy/src/rng"
)

// Apology is returned when generation fails internally.
const Apology = "Oops! I couldn't think of a reply right now."

const (
	humorMarker      = " 😏"
	excitementMarker = " 🎉"
	empathySentence  = " I really understand how you feel."
	drySuffix        = " (trying to sound interested 😅)"
	genericPhrase    = "Okay."
)

// Gates and probabilities for the stylistic modifiers.
const (
	friendlyThreshold   = 0.6
	humorThreshold      = 0.7
	excitementThreshold = 0.6
	empathyThreshold    = 0.7
	curiosityThreshold  = 0.6

	shoutChance    = 0.3
	cheerChance    = 0.2
	followUpChance = 0.5
)

var basePhrases = map[mood.Mood][]string{
	mood.Happy: {
		"That makes me smile 😄",
		"I’m loving this energy!",
		"Yay! Tell me more!",
	},
	mood.Sad: {
		"I’m here for you ❤️",
		"Want to talk about it?",
		"It’s okay to feel down sometimes.",
	},
	mood.Annoyed: {
		"Ugh, seriously?",
		"Okay... if you say so 😅",
		"Hmm, I’m not thrilled about that.",
	},
	mood.Neutral: {
		"Gotcha.",
		"Hmm, interesting!",
		"I see what you mean.",
	},
}

var followUps = []string{
	"Can you tell me more?",
	"What happened next?",
	"How does that make you feel?",
}

// Tone is the overall register selected by friendliness.
type Tone string

const (
	ToneFriendly Tone = "friendly"
	ToneDry      Tone = "dry"
)

// ToneFor returns the tone a vector resolves to.
func ToneFor(vec personality.TraitVector) Tone {
	if vec.Get(personality.Friendliness) > friendlyThreshold {
		return ToneFriendly
	}
	return ToneDry
}

// Responder generates replies. It is safe for concurrent use when its
// source is.
type Responder struct {
	src rng.Source
}

// New creates a Responder. A nil src uses rng.Default.
func New(src rng.Source) *Responder {
	if src == nil {
		src = rng.Default()
	}
	return &Responder{src: src}
}

// Generate builds a reply for message. On failure it returns Apology
// together with the cause, so callers always have text to show.
func (r *Responder) Generate(vec personality.TraitVector, m mood.Mood, message string) (reply string, err error) {
	defer func() {
		if p := recover(); p != nil {
			reply, err = Apology, fmt.Errorf("responder panic: %v", p)
		}
	}()

	if len(vec) == 0 {
		return Apology, bErrors.ErrEmptyVector
	}

	humor := vec.Get(personality.Humor)
	excitement := vec.Get(personality.Excitement)
	empathy := vec.Get(personality.Empathy)
	curiosity := vec.Get(personality.Curiosity)

	tone := ToneFor(vec)

	pool, ok := basePhrases[m]
	if !ok {
		pool = []string{genericPhrase}
	}
	var b strings.Builder
	b.WriteString(pool[r.src.IntN(len(pool))])

	if humor > humorThreshold && m != mood.Sad {
		b.WriteString(humorMarker)
	}

	if excitement > excitementThreshold {
		if r.src.Float64() < shoutChance {
			upper := strings.ToUpper(b.String())
			b.Reset()
			b.WriteString(upper)
		}
		if r.src.Float64() < cheerChance {
			b.WriteString(excitementMarker)
		}
	}

	if empathy > empathyThreshold && (m == mood.Sad || m == mood.Neutral) {
		b.WriteString(empathySentence)
	}

	if curiosity > curiosityThreshold && r.src.Float64() < followUpChance {
		b.WriteString(" ")
		b.WriteString(followUps[r.src.IntN(len(followUps))])
	}

	if tone == ToneDry {
		b.WriteString(drySuffix)
	}

	return b.String(), nil
}
