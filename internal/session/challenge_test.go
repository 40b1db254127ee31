package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codementor-ai/codementor/pkg/types"
)

func TestParseChallenge(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.Challenge
	}{
		{
			name: "all sections present",
			raw: "Which loop walks a slice?\nA) for\nB) while\nCORRECT_ANSWER: A\nEXPLANATION: Go only has for loops.",
			want: types.Challenge{
				Challenge:     "Which loop walks a slice?\nA) for\nB) while",
				CorrectAnswer: "A",
				Explanation:   "Go only has for loops.",
			},
		},
		{
			name: "multiline answer and explanation",
			raw: "Write a one-line swap.\nCORRECT_ANSWER:\na, b = b, a\nEXPLANATION:\nTuple assignment\nswaps in place.",
			want: types.Challenge{
				Challenge:     "Write a one-line swap.",
				CorrectAnswer: "a, b = b, a",
				Explanation:   "Tuple assignment\nswaps in place.",
			},
		},
		{
			name: "missing explanation",
			raw:  "Pick one.\nCORRECT_ANSWER: B",
			want: types.Challenge{Challenge: "Pick one.", CorrectAnswer: "B"},
		},
		{
			name: "no tags at all",
			raw:  "Just a challenge body with no markers.",
			want: types.Challenge{Challenge: "Just a challenge body with no markers."},
		},
		{
			name: "first answer tag wins",
			raw:  "Body\nCORRECT_ANSWER: first\nCORRECT_ANSWER: second\nEXPLANATION: done",
			want: types.Challenge{
				Challenge:     "Body",
				CorrectAnswer: "first\nCORRECT_ANSWER: second",
				Explanation:   "done",
			},
		},
		{
			name: "explanation before answer",
			raw:  "Body\nEXPLANATION: because\nCORRECT_ANSWER: B",
			want: types.Challenge{
				Challenge:     "Body",
				CorrectAnswer: "B",
				Explanation:   "because",
			},
		},
		{
			name: "indented tags are recognized",
			raw:  "Body\n  CORRECT_ANSWER: C\n  EXPLANATION: indented",
			want: types.Challenge{Challenge: "Body", CorrectAnswer: "C", Explanation: "indented"},
		},
		{
			name: "empty input",
			raw:  "",
			want: types.Challenge{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseChallenge(tt.raw))
		})
	}
}
