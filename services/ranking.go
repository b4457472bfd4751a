package services

import (
	"slices"

	"bonus-hunt-service/models"

	"github.com/shopspring/decimal"
)

// DefaultLeaderboardLimit is how many entries a leaderboard shows when no limit is given.
const DefaultLeaderboardLimit = 10

// RankedGuess is a guess with its distance from the target and its 1-based position.
type RankedGuess struct {
	models.Guess
	Diff decimal.Decimal `json:"diff"`
	Rank int             `json:"rank"`
}

// RankGuesses orders guesses by absolute distance from target, closest first.
// Equal distances keep their input order. The input slice is not modified.
func RankGuesses(target decimal.Decimal, guesses []models.Guess) []RankedGuess {
	ranked := make([]RankedGuess, len(guesses))
	for i, g := range guesses {
		ranked[i] = RankedGuess{Guess: g, Diff: g.Value.Sub(target).Abs()}
	}
	slices.SortStableFunc(ranked, func(a, b RankedGuess) int {
		return a.Diff.Cmp(b.Diff)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Leaderboard returns the first limit entries of RankGuesses. A limit <= 0 uses DefaultLeaderboardLimit.
func Leaderboard(target decimal.Decimal, guesses []models.Guess, limit int) []RankedGuess {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	ranked := RankGuesses(target, guesses)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// FindWinners returns every guess tied for the smallest distance, in input order.
func FindWinners(target decimal.Decimal, guesses []models.Guess) ([]RankedGuess, error) {
	if len(guesses) == 0 {
		return nil, ErrNoGuesses
	}
	ranked := RankGuesses(target, guesses)
	best := ranked[0].Diff
	end := 1
	for end < len(ranked) && ranked[end].Diff.Equal(best) {
		end++
	}
	return ranked[:end:end], nil
}
