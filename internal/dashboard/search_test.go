package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func visiblePlayers(cards []Card) []string {
	out := []string{}
	for _, c := range cards {
		if c.Visible {
			out = append(out, c.Player)
		}
	}
	return out
}

func TestApplySearch(t *testing.T) {
	v := NewView(sampleCatalog(), "standard")
	cards := v.Cards()

	ApplySearch(cards, "jam")
	assert.ElementsMatch(t, []string{"LeBron James", "Jamal Murray", "James Harden"}, visiblePlayers(cards))
	assert.NotContains(t, visiblePlayers(cards), "Stephen Curry")

	ApplySearch(cards, "GSW")
	assert.Equal(t, []string{"Stephen Curry"}, visiblePlayers(cards))

	ApplySearch(cards, "")
	assert.Len(t, visiblePlayers(cards), 5)
}

func TestSearchSurvivesRerender(t *testing.T) {
	v := NewView(sampleCatalog(), "standard")
	v.Search("JAM")
	v.ApplySelection([]string{"Points", "Assists"}, v.Filter().SelectedGames())

	cards := v.Cards()
	assert.Len(t, cards, 3)
	assert.ElementsMatch(t, []string{"LeBron James", "Jamal Murray", "James Harden"}, visiblePlayers(cards))

	v.ResetFilters()
	assert.Len(t, visiblePlayers(v.Cards()), 3)
}
