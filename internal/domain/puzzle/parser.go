package puzzle

import (
	"regexp"
	"strconv"
	"strings"
)

// Share texts look like "Wordle 1,234 3/6" or "Wordle 1467 X/6*".
// The puzzle number may carry thousands separators; X marks a miss.
var shareRegex = regexp.MustCompile(`Wordle\s+([\d,]+)\s+([1-6X])/6`)

// ParsedResult is a share text decoded into domain terms.
type ParsedResult struct {
	// PuzzleIndex - the puzzle number from the share text.
	PuzzleIndex int

	// Score - guesses used, or MissPenalty for an X.
	Score Score
}

// ParseShareText extracts a puzzle result from a message. Returns
// (result, true) when the message contains a share, (zero, false)
// otherwise. Non-share chatter is not an error.
func ParseShareText(text string) (ParsedResult, bool) {
	match := shareRegex.FindStringSubmatch(text)
	if match == nil {
		return ParsedResult{}, false
	}

	index, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return ParsedResult{}, false
	}

	score := MissPenalty
	if match[2] != "X" {
		guesses, err := strconv.Atoi(match[2])
		if err != nil {
			return ParsedResult{}, false
		}
		score = Score(guesses)
	}

	return ParsedResult{PuzzleIndex: index, Score: score}, true
}
