package engine

import (
	"fmt"
	"strings"

	"buddy/src/mood"
	"buddy/src/personality"
)

// replyMarker separates the prompt from the model's answer.
const replyMarker = "Buddy:"

// BuildPrompt renders the instruction sent to a generative backend.
func BuildPrompt(m mood.Mood, vec personality.TraitVector, message string) string {
	return fmt.Sprintf(
		"You are a %s AI buddy with personality vector %s.\nReply conversationally and helpfully.\nUser: %s\n%s",
		m, vec.String(), message, replyMarker,
	)
}

// ExtractReply returns the text after the last reply marker in output,
// trimmed. Output without a marker is returned whole.
func ExtractReply(output string) string {
	if i := strings.LastIndex(output, replyMarker); i >= 0 {
		output = output[i+len(replyMarker):]
	}
	return strings.TrimSpace(output)
}
