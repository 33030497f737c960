package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCatalogKeepsTabOrder(t *testing.T) {
	raw := []byte(`{"props_by_type": {
		"standard": [{"player_name":"LeBron James","team_name":"LAL","stat_name":"Points","line_score":25.5,
			"game_info":{"away_team":"LAL","home_team":"BOS","start_time":"2025-01-02 19:30:00"},
			"last_5_rate":80,"h2h_games":0}],
		"demon": [],
		"goblin": null
	}}`)
	c, err := DecodeCatalog(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"standard", "demon", "goblin"}, c.Tabs())
	assert.Equal(t, 1, c.Len())

	p := c.Tab("standard")[0]
	assert.Equal(t, "25.5", p.LineScore.String())
	assert.Equal(t, float64(0), p.Last10Rate)
}

func TestDecodeCatalogMissingField(t *testing.T) {
	_, err := DecodeCatalog([]byte(`{"error":"No data available. Please upload files first."}`))
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = DecodeCatalog([]byte(`not json`))
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = DecodeCatalog([]byte(`{"props_by_type":{"standard":[{"line_score":"x"}]}}`))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

type failingSource struct{ err error }

func (f failingSource) GetProps(context.Context) ([]byte, error) { return nil, f.err }

func TestLoadCatalogFetchFailure(t *testing.T) {
	_, err := LoadCatalog(context.Background(), failingSource{err: errors.New("connection refused")})
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, ErrCatalogFetch)
}

func TestCardIDRoundTrip(t *testing.T) {
	c := sampleCatalog()
	p, ok := c.Lookup(CardID("standard", 2))
	require.True(t, ok)
	assert.Equal(t, "Stephen Curry", p.PlayerName)

	tab, idx, ok := ParseCardID("my-tab-12")
	require.True(t, ok)
	assert.Equal(t, "my-tab", tab)
	assert.Equal(t, 12, idx)

	_, ok = c.Lookup("standard-99")
	assert.False(t, ok)
	_, ok = c.Lookup("nonsense")
	assert.False(t, ok)

	for _, id := range []string{"standard-00", "standard-+0", "standard- 1", "standard-01"} {
		_, _, ok = ParseCardID(id)
		assert.False(t, ok, id)
		_, ok = c.Lookup(id)
		assert.False(t, ok, id)
	}
}
