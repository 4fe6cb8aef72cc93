package wildcards

import "time"

// DeckTally counts the cards of one deck by wildcard tier. Counts are summed over
// quantities, so a playset of a rare adds four to Rare.
type DeckTally struct {
	DeckName      string     `json:"deck_name"`
	URL           string     `json:"url"`
	Format        DeckFormat `json:"format"`
	LastUpdatedAt time.Time  `json:"last_updated_at"`
	Common        int        `json:"common"`
	Uncommon      int        `json:"uncommon"`
	Rare          int        `json:"rare"`
	Mythic        int        `json:"mythic"`
	Special       int        `json:"special"`
}

// Count returns the bucket for r. RarityUnknown has no bucket and counts zero.
func (t DeckTally) Count(r Rarity) int {
	switch r {
	case RarityCommon:
		return t.Common
	case RarityUncommon:
		return t.Uncommon
	case RarityRare:
		return t.Rare
	case RarityMythic:
		return t.Mythic
	case RaritySpecial:
		return t.Special
	}
	return 0
}

// Total returns the number of bucketed cards in the deck.
func (t DeckTally) Total() int {
	return t.Common + t.Uncommon + t.Rare + t.Mythic + t.Special
}

// add sums quantity into the bucket for r and reports whether r has a bucket.
func (t *DeckTally) add(r Rarity, quantity int) bool {
	switch r {
	case RarityCommon:
		t.Common += quantity
	case RarityUncommon:
		t.Uncommon += quantity
	case RarityRare:
		t.Rare += quantity
	case RarityMythic:
		t.Mythic += quantity
	case RaritySpecial:
		t.Special += quantity
	default:
		return false
	}
	return true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseTimestamp reads the catalog's UTC timestamps. Values without a zone are UTC.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
