package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ramonehamilton/wildcard-tally/internal/mtga/wildcards"
)

// DeckTallyRow is one deck in the deck tally report.
type DeckTallyRow struct {
	DeckName      string    `json:"deck_name" csv:"deck_name"`
	URL           string    `json:"url" csv:"url"`
	Format        string    `json:"format" csv:"format"`
	LastUpdatedAt time.Time `json:"last_updated_at" csv:"last_updated_at"`
	Common        int       `json:"common" csv:"common"`
	Uncommon      int       `json:"uncommon" csv:"uncommon"`
	Rare          int       `json:"rare" csv:"rare"`
	Mythic        int       `json:"mythic" csv:"mythic"`
	Special       int       `json:"special" csv:"special"`
}

// CollectionCardRow is one card in a format collection report.
type CollectionCardRow struct {
	MaxQuantity int      `json:"max_quantity" csv:"max_quantity"`
	Name        string   `json:"name" csv:"name"`
	UniqueID    string   `json:"unique_id" csv:"unique_id"`
	ScryfallID  string   `json:"scryfall_id" csv:"scryfall_id"`
	CMC         float64  `json:"cmc" csv:"cmc"`
	TypeLine    string   `json:"type_line" csv:"type_line"`
	Colors      []string `json:"colors" csv:"colors"`
	Rarity      string   `json:"rarity" csv:"rarity"`
}

// FormatTotalRow is the wildcard requirement of one format collection.
type FormatTotalRow struct {
	Collection string `json:"collection" csv:"collection"`
	Cards      int    `json:"cards" csv:"cards"`
	Common     int    `json:"common" csv:"common"`
	Uncommon   int    `json:"uncommon" csv:"uncommon"`
	Rare       int    `json:"rare" csv:"rare"`
	Mythic     int    `json:"mythic" csv:"mythic"`
	Special    int    `json:"special" csv:"special"`
	Unknown    int    `json:"unknown" csv:"unknown"`
}

// FormatAverageRow is the average rarity make-up of the decks of one format.
type FormatAverageRow struct {
	Format    string  `json:"format" csv:"format"`
	DeckCount int     `json:"deck_count" csv:"deck_count"`
	Common    float64 `json:"common" csv:"common"`
	Uncommon  float64 `json:"uncommon" csv:"uncommon"`
	Rare      float64 `json:"rare" csv:"rare"`
	Mythic    float64 `json:"mythic" csv:"mythic"`
	Special   float64 `json:"special" csv:"special"`
}

// DeckTallyRows converts tallies into report rows.
func DeckTallyRows(tallies []wildcards.DeckTally) []DeckTallyRow {
	rows := make([]DeckTallyRow, 0, len(tallies))
	for _, t := range tallies {
		rows = append(rows, DeckTallyRow{
			DeckName:      t.DeckName,
			URL:           t.URL,
			Format:        t.Format.String(),
			LastUpdatedAt: t.LastUpdatedAt,
			Common:        t.Common,
			Uncommon:      t.Uncommon,
			Rare:          t.Rare,
			Mythic:        t.Mythic,
			Special:       t.Special,
		})
	}
	return rows
}

// CollectionCardRows converts a collection into report rows ordered by unique id.
func CollectionCardRows(c *wildcards.Collection) []CollectionCardRow {
	cards := c.Cards()
	rows := make([]CollectionCardRow, 0, len(cards))
	for _, card := range cards {
		rows = append(rows, CollectionCardRow{
			MaxQuantity: card.MaxQuantity,
			Name:        card.Name,
			UniqueID:    card.UniqueID,
			ScryfallID:  card.ScryfallID,
			CMC:         card.CMC,
			TypeLine:    card.TypeLine,
			Colors:      card.Colors,
			Rarity:      card.Rarity.String(),
		})
	}
	return rows
}

// FormatTotalRows summarizes each collection.
func FormatTotalRows(collections []*wildcards.Collection) []FormatTotalRow {
	rows := make([]FormatTotalRow, 0, len(collections))
	for _, c := range collections {
		total := wildcards.CollectionTotals(c)
		rows = append(rows, FormatTotalRow{
			Collection: total.Format.String(),
			Cards:      total.Cards,
			Common:     total.ByRarity[wildcards.RarityCommon],
			Uncommon:   total.ByRarity[wildcards.RarityUncommon],
			Rare:       total.ByRarity[wildcards.RarityRare],
			Mythic:     total.ByRarity[wildcards.RarityMythic],
			Special:    total.ByRarity[wildcards.RaritySpecial],
			Unknown:    total.ByRarity[wildcards.RarityUnknown],
		})
	}
	return rows
}

// FormatAverageRows converts per-format averages into report rows.
func FormatAverageRows(averages []wildcards.FormatAverage) []FormatAverageRow {
	rows := make([]FormatAverageRow, 0, len(averages))
	for _, a := range averages {
		rows = append(rows, FormatAverageRow{
			Format:    a.Format.String(),
			DeckCount: a.DeckCount,
			Common:    a.Average[wildcards.RarityCommon],
			Uncommon:  a.Average[wildcards.RarityUncommon],
			Rare:      a.Average[wildcards.RarityRare],
			Mythic:    a.Average[wildcards.RarityMythic],
			Special:   a.Average[wildcards.RaritySpecial],
		})
	}
	return rows
}

// ReportOptions configures WriteReports.
type ReportOptions struct {
	Dir       string
	Format    Format
	Overwrite bool
}

// CollectionFilename returns the report file name for a format collection,
// e.g. "standard_card_data.csv".
func CollectionFilename(format wildcards.DeckFormat, ext Format) string {
	return fmt.Sprintf("%s_card_data.%s", strings.ToLower(format.String()), ext)
}

// WriteReports writes the deck tallies, one file per collection and the two summary
// files into opts.Dir. It returns the paths written. Empty inputs produce files
// that hold only a header.
func WriteReports(tallies []wildcards.DeckTally, collections []*wildcards.Collection, opts ReportOptions) ([]string, error) {
	format := opts.Format
	if format == "" {
		format = FormatCSV
	}

	type report struct {
		name string
		data interface{}
	}
	reports := []report{
		{name: "deck_tallies." + string(format), data: DeckTallyRows(tallies)},
	}
	for _, c := range collections {
		reports = append(reports, report{name: CollectionFilename(c.Format(), format), data: CollectionCardRows(c)})
	}
	reports = append(reports,
		report{name: "format_totals." + string(format), data: FormatTotalRows(collections)},
		report{name: "format_averages." + string(format), data: FormatAverageRows(wildcards.AverageByFormat(tallies))},
	)

	paths := make([]string, 0, len(reports))
	for _, r := range reports {
		path := filepath.Join(opts.Dir, r.name)
		exporter := NewExporter(Options{
			Format:     format,
			FilePath:   path,
			PrettyJSON: true,
			Overwrite:  opts.Overwrite,
		})
		if err := exporter.Export(r.data); err != nil {
			return paths, fmt.Errorf("write %s: %w", r.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
