package wildcards

import (
	"sort"
	"sync"
)

// Card is one distinct card in a format collection.
type Card struct {
	UniqueID    string   `json:"unique_id"`
	ScryfallID  string   `json:"scryfall_id"`
	Name        string   `json:"name"`
	CMC         float64  `json:"cmc"`
	TypeLine    string   `json:"type_line"`
	Colors      []string `json:"colors"`
	Rarity      Rarity   `json:"rarity"`
	MaxQuantity int      `json:"max_quantity"`
}

// Collection tracks, per card, the most copies any single deck of one format needs.
// It only grows. Collection is safe for concurrent use.
type Collection struct {
	format DeckFormat

	mu    sync.Mutex
	cards map[string]*Card
}

// NewCollection creates an empty collection for format.
func NewCollection(format DeckFormat) *Collection {
	return &Collection{
		format: format,
		cards:  make(map[string]*Card),
	}
}

// Format returns the format this collection aggregates.
func (c *Collection) Format() DeckFormat {
	return c.format
}

// Merge folds card into the collection and reports whether it was new.
// An existing entry only has its MaxQuantity raised; its other fields keep their
// first-seen values.
func (c *Collection) Merge(card Card) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.cards[card.UniqueID]; ok {
		if card.MaxQuantity > existing.MaxQuantity {
			existing.MaxQuantity = card.MaxQuantity
		}
		return false
	}

	stored := card
	if card.Colors != nil {
		stored.Colors = append([]string(nil), card.Colors...)
	}
	c.cards[card.UniqueID] = &stored
	return true
}

// Get returns a copy of the card stored under uniqueID.
func (c *Collection) Get(uniqueID string) (Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	card, ok := c.cards[uniqueID]
	if !ok {
		return Card{}, false
	}
	return *card, true
}

// Len returns the number of distinct cards.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cards)
}

// Cards returns a snapshot of the collection sorted by UniqueID.
func (c *Collection) Cards() []Card {
	c.mu.Lock()
	out := make([]Card, 0, len(c.cards))
	for _, card := range c.cards {
		out = append(out, *card)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UniqueID < out[j].UniqueID
	})
	return out
}

// TrackedFormats are the formats that get a collection.
var TrackedFormats = []DeckFormat{FormatStandard, FormatHistoricBrawl}

// Collections holds one Collection per tracked format.
type Collections struct {
	byFormat map[DeckFormat]*Collection
}

// NewCollections creates empty collections for every tracked format.
func NewCollections() *Collections {
	byFormat := make(map[DeckFormat]*Collection, len(TrackedFormats))
	for _, f := range TrackedFormats {
		byFormat[f] = NewCollection(f)
	}
	return &Collections{byFormat: byFormat}
}

// For returns the collection for format, or nil when the format is not tracked.
func (cs *Collections) For(format DeckFormat) *Collection {
	return cs.byFormat[format]
}

// Merge folds card into the collection for format.
// Cards of untracked formats are dropped and Merge returns false.
func (cs *Collections) Merge(card Card, format DeckFormat) bool {
	c := cs.For(format)
	if c == nil {
		return false
	}
	c.Merge(card)
	return true
}

// All returns the tracked collections in TrackedFormats order.
func (cs *Collections) All() []*Collection {
	out := make([]*Collection, 0, len(TrackedFormats))
	for _, f := range TrackedFormats {
		out = append(out, cs.byFormat[f])
	}
	return out
}
