package moxfield

import (
	"errors"
	"html"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewer(body string) string {
	return "<html><body><pre>" + html.EscapeString(body) + "</pre></body></html>"
}

func TestExtractJSON(t *testing.T) {
	raw, err := ExtractJSON(viewer(`{"name":"A & B"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"A & B"}`, string(raw))
}

func TestExtractJSON_FirstPreWins(t *testing.T) {
	page := "<html><body><pre>[1]</pre><pre>[2]</pre></body></html>"
	raw, err := ExtractJSON(page)
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(raw))
}

func TestExtractJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
		want error
	}{
		{"no pre", "<html><body><h1>Just a moment...</h1></body></html>", ErrNoPayload},
		{"empty pre", "<html><body><pre>  </pre></body></html>", ErrNoPayload},
		{"not json", "<html><body><pre>{oops</pre></body></html>", ErrMalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractJSON(tt.page)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestExtractDeck(t *testing.T) {
	page := viewer(`{
		"name": "Izzet Phoenix",
		"format": "historicBrawl",
		"publicUrl": "https://moxfield.com/decks/abc",
		"lastUpdatedAtUtc": "2024-05-01T12:00:00Z",
		"boards": {
			"mainboard": {"count": 2, "cards": {
				"k1": {"quantity": 4, "card": {"uniqueCardId": "u1", "scryfall_id": "s1", "name": "Opt", "cmc": 1, "type_line": "Instant", "colors": ["U"], "rarity": "common"}},
				"k2": {"card": {"uniqueCardId": "u2", "name": "Arclight Phoenix", "rarity": "mythic"}}
			}},
			"sideboard": {"count": 0, "cards": {}}
		}
	}`)

	deck, err := ExtractDeck(page)
	require.NoError(t, err)

	assert.Equal(t, "Izzet Phoenix", deck.Name)
	assert.Equal(t, "historicBrawl", deck.Format)
	require.Len(t, deck.Boards.Mainboard.Cards, 2)

	opt := deck.Boards.Mainboard.Cards["k1"]
	assert.Equal(t, 4, opt.QuantityOrDefault())
	assert.Equal(t, CardInfo{
		UniqueCardID: "u1",
		ScryfallID:   "s1",
		Name:         "Opt",
		CMC:          1,
		TypeLine:     "Instant",
		Colors:       []string{"U"},
		Rarity:       "common",
	}, opt.Card)

	assert.Equal(t, 1, deck.Boards.Mainboard.Cards["k2"].QuantityOrDefault())
}

func TestExtractSearchResult_WrongShape(t *testing.T) {
	_, err := ExtractSearchResult(viewer(`{"data": "nope"}`))
	assert.True(t, errors.Is(err, ErrMalformedPayload), "got %v", err)
}
