package wildcards

import "sort"

// RarityTotals maps each rarity to a card count.
type RarityTotals map[Rarity]int

// CollectionTotal is the number of wildcards of each rarity needed to build every
// deck of a format at once.
type CollectionTotal struct {
	Format   DeckFormat
	Cards    int
	ByRarity RarityTotals
}

// Total returns the sum over all rarities, unknown included.
func (t CollectionTotal) Total() int {
	n := 0
	for _, v := range t.ByRarity {
		n += v
	}
	return n
}

// CollectionTotals sums MaxQuantity by rarity over a collection.
func CollectionTotals(c *Collection) CollectionTotal {
	total := CollectionTotal{
		Format:   c.Format(),
		ByRarity: make(RarityTotals),
	}
	for _, card := range c.Cards() {
		total.Cards++
		total.ByRarity[card.Rarity] += card.MaxQuantity
	}
	return total
}

// FormatAverage is the mean number of cards per rarity across the decks of a format.
type FormatAverage struct {
	Format    DeckFormat
	DeckCount int
	Average   map[Rarity]float64
}

// AverageByFormat groups tallies by format and averages their rarity buckets.
// The result is sorted by format name.
func AverageByFormat(tallies []DeckTally) []FormatAverage {
	sums := make(map[DeckFormat]RarityTotals)
	counts := make(map[DeckFormat]int)

	for _, t := range tallies {
		if sums[t.Format] == nil {
			sums[t.Format] = make(RarityTotals)
		}
		for _, r := range Rarities {
			sums[t.Format][r] += t.Count(r)
		}
		counts[t.Format]++
	}

	out := make([]FormatAverage, 0, len(sums))
	for format, sum := range sums {
		avg := FormatAverage{
			Format:    format,
			DeckCount: counts[format],
			Average:   make(map[Rarity]float64, len(Rarities)),
		}
		for _, r := range Rarities {
			avg.Average[r] = float64(sum[r]) / float64(avg.DeckCount)
		}
		out = append(out, avg)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Format < out[j].Format
	})
	return out
}
