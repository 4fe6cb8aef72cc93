// Package moxfield models the Moxfield deck API payloads and the requests that produce them.
package moxfield

// SearchResult is one page of the deck search endpoint.
type SearchResult struct {
	PageNumber   int           `json:"pageNumber"`
	PageSize     int           `json:"pageSize"`
	TotalResults int           `json:"totalResults"`
	TotalPages   int           `json:"totalPages"`
	Data         []DeckSummary `json:"data"`
}

// DeckSummary identifies a deck in search results.
type DeckSummary struct {
	ID               string `json:"id"`
	PublicID         string `json:"publicId"`
	PublicURL        string `json:"publicUrl"`
	Name             string `json:"name"`
	Format           string `json:"format"`
	LastUpdatedAtUTC string `json:"lastUpdatedAtUtc"`
}

// Deck is the full deck detail payload.
type Deck struct {
	ID               string `json:"id"`
	PublicID         string `json:"publicId"`
	Name             string `json:"name"`
	PublicURL        string `json:"publicUrl"`
	Format           string `json:"format"`
	LastUpdatedAtUTC string `json:"lastUpdatedAtUtc"`
	Boards           Boards `json:"boards"`
}

// Boards holds the card groupings of a deck.
type Boards struct {
	Mainboard Board `json:"mainboard"`
	Sideboard Board `json:"sideboard"`
}

// Board is one card grouping, keyed by an opaque entry id.
type Board struct {
	Count int                   `json:"count"`
	Cards map[string]BoardEntry `json:"cards"`
}

// BoardEntry is a card and how many copies of it the board plays.
type BoardEntry struct {
	// Quantity is nil when the payload omits it.
	Quantity *int     `json:"quantity"`
	Card     CardInfo `json:"card"`
}

// CardInfo is the nested card object of a board entry.
type CardInfo struct {
	UniqueCardID string   `json:"uniqueCardId"`
	ScryfallID   string   `json:"scryfall_id"`
	Name         string   `json:"name"`
	CMC          float64  `json:"cmc"`
	TypeLine     string   `json:"type_line"`
	Colors       []string `json:"colors"`
	Rarity       string   `json:"rarity"`
}

// QuantityOrDefault returns the entry's quantity, or 1 when it was omitted.
func (e BoardEntry) QuantityOrDefault() int {
	if e.Quantity == nil {
		return 1
	}
	return *e.Quantity
}
