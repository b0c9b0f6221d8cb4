package engine

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

const (
	ChoosingSeconds = 15
	DrawerBonus     = 10
	HintEndBuffer   = 15

	closeGuessDistance = 2
)

// DefaultWords is the vocabulary of last resort, used when a language has no
// loaded word list.
var DefaultWords = []string{"apple", "banana", "house", "car", "tree", "dog", "cat", "computer", "guitar", "spring"}

func DefaultConfig() Config {
	return Config{
		Language:           "English",
		ScoringMode:        ModeChill,
		DrawingTime:        120,
		Rounds:             4,
		MaxPlayers:         24,
		PlayersPerIPLimit:  2,
		CustomWordsPerTurn: 3,
	}
}

// Normalize fills blanks with defaults and clamps out-of-range values.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	c.Language = strings.TrimSpace(c.Language)
	if c.Language == "" {
		c.Language = def.Language
	}
	switch c.ScoringMode {
	case ModeChill, ModeNormal, ModeCompetitive:
	default:
		c.ScoringMode = def.ScoringMode
	}
	c.DrawingTime = clampOr(c.DrawingTime, 30, 600, def.DrawingTime)
	c.Rounds = clampOr(c.Rounds, 1, 20, def.Rounds)
	c.MaxPlayers = clampOr(c.MaxPlayers, 2, 100, def.MaxPlayers)
	c.CustomWordsPerTurn = clampOr(c.CustomWordsPerTurn, 1, 5, def.CustomWordsPerTurn)
	if c.PlayersPerIPLimit < 0 {
		c.PlayersPerIPLimit = 0
	}
	words := make([]string, 0, len(c.CustomWords))
	for _, w := range c.CustomWords {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	c.CustomWords = words
	c.LobbyName = strings.TrimSpace(c.LobbyName)
	return c
}

// clampOr returns def for non-positive v, else v clamped to [lo, hi].
func clampOr(v, lo, hi, def int) int {
	if v <= 0 {
		return def
	}
	return min(max(v, lo), hi)
}

// CalculatePoints scores a correct guess: faster guesses earn more and the
// first two guessers get a bonus, scaled by the scoring mode.
func CalculatePoints(elapsed, position int, mode ScoringMode, maxTime int) int {
	base := 50
	timeBonus := max(0, (maxTime-elapsed)*2)
	positionBonus := 0
	switch position {
	case 1:
		positionBonus = 50
	case 2:
		positionBonus = 25
	}
	return int(math.Round(float64(base+timeBonus+positionBonus) * mode.Multiplier()))
}

// HintSchedule returns the countdown values, descending, at which a letter of
// the word is revealed during a drawing turn of d seconds.
func HintSchedule(d int) []int {
	numHints := min(max(d/30, 2), 5)
	interval := (d - HintEndBuffer) / (numHints + 1)
	times := make([]int, 0, numHints)
	for i := 1; i <= numHints; i++ {
		if t := d - (HintEndBuffer + interval*i); t > 0 {
			times = append(times, t)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(times)))
	return times
}

// HintWord masks word for guessers: revealed runes, spaces and hyphens are
// shown, everything else becomes an underscore, all separated by spaces.
func HintWord(word string, revealed map[int]bool) string {
	if word == "" {
		return "_ _ _ _ _"
	}
	var sb strings.Builder
	i := 0
	for _, c := range word {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if revealed[i] || c == ' ' || c == '-' {
			sb.WriteRune(c)
		} else {
			sb.WriteByte('_')
		}
		i++
	}
	return strings.TrimSpace(sb.String())
}

func normalizeGuess(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func isCloseGuess(guess, word string) bool {
	if guess == "" || utf8.RuneCountInString(word) <= 3 {
		return false
	}
	return levenshtein.ComputeDistance(guess, word) <= closeGuessDistance
}
