package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseShareText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantIndex int
		wantScore Score
		wantOK    bool
	}{
		{"plain result", "Wordle 1467 3/6", 1467, 3, true},
		{"thousands separator", "Wordle 1,467 5/6", 1467, 5, true},
		{"miss", "Wordle 1467 X/6", 1467, MissPenalty, true},
		{"hard mode star", "Wordle 1467 4/6*", 1467, 4, true},
		{"surrounded by chatter", "lucky today!\nWordle 1467 2/6\n🟩🟩🟩🟩🟩", 1467, 2, true},
		{"not a share", "just talking about wordle today", 0, 0, false},
		{"seven is not a score", "Wordle 1467 7/6", 0, 0, false},
		{"empty", "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ParseShareText(tt.text)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantIndex, result.PuzzleIndex)
				assert.Equal(t, tt.wantScore, result.Score)
			}
		})
	}
}
