package session

import (
	"strings"

	"github.com/codementor-ai/codementor/pkg/types"
)

const (
	answerTag      = "CORRECT_ANSWER:"
	explanationTag = "EXPLANATION:"
)

// ParseChallenge splits a tagged mini-challenge response into its parts.
// The challenge body runs until the first tag line. Each tag is recognized
// in whatever order the model emits it; the first occurrence of a tag opens
// its section, which collects lines until the other tag or the end. A
// missing tag leaves its field empty rather than failing.
func ParseChallenge(raw string) types.Challenge {
	var body, answer, explanation []string
	section := &body
	seenAnswer := false
	seenExplanation := false

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !seenAnswer && strings.HasPrefix(trimmed, answerTag):
			seenAnswer = true
			section = &answer
			if rest := strings.TrimSpace(strings.TrimPrefix(trimmed, answerTag)); rest != "" {
				answer = append(answer, rest)
			}
		case !seenExplanation && strings.HasPrefix(trimmed, explanationTag):
			seenExplanation = true
			section = &explanation
			if rest := strings.TrimSpace(strings.TrimPrefix(trimmed, explanationTag)); rest != "" {
				explanation = append(explanation, rest)
			}
		default:
			*section = append(*section, line)
		}
	}

	return types.Challenge{
		Challenge:     strings.TrimSpace(strings.Join(body, "\n")),
		CorrectAnswer: strings.TrimSpace(strings.Join(answer, "\n")),
		Explanation:   strings.TrimSpace(strings.Join(explanation, "\n")),
	}
}
