package dashboard

import "strings"

// ApplySearch sets Visible on each card: a card stays visible when its player or team name
// contains term, case-insensitively. An empty term shows every card.
func ApplySearch(cards []Card, term string) {
	term = strings.ToLower(term)
	for i := range cards {
		c := &cards[i]
		c.Visible = strings.Contains(strings.ToLower(c.Player), term) ||
			strings.Contains(strings.ToLower(c.Team), term)
	}
}
