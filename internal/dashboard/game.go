package dashboard

import (
	"strings"

	"propscope/backend-go/internal/models"
)

const (
	gameSep    = " @ "
	gameKeySep = " vs "
)

// NormalizeGame returns an order-independent key for a fixture: both team names sorted and
// joined with " vs ". Two fixtures between the same teams on one slate share a key.
func NormalizeGame(away, home string) string {
	if home < away {
		away, home = home, away
	}
	return away + gameKeySep + home
}

// GameKey is NormalizeGame applied to a prop's game info.
func GameKey(g models.GameInfo) string {
	return NormalizeGame(g.AwayTeam, g.HomeTeam)
}

// GameDisplay keeps the original away @ home order.
func GameDisplay(g models.GameInfo) string {
	return g.AwayTeam + gameSep + g.HomeTeam
}

// ParseGameString splits an "away @ home" string. ok is false when the separator is missing.
func ParseGameString(s string) (away, home string, ok bool) {
	away, home, ok = strings.Cut(s, gameSep)
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(away), strings.TrimSpace(home), true
}
