package wildcards

import "strings"

// DeckFormat represents the ruleset a deck is built for.
type DeckFormat string

const (
	FormatStandard      DeckFormat = "Standard"
	FormatAlchemy       DeckFormat = "Alchemy"
	FormatExplorer      DeckFormat = "Explorer"
	FormatHistoric      DeckFormat = "Historic"
	FormatTimeless      DeckFormat = "Timeless"
	FormatBrawl         DeckFormat = "Brawl"
	FormatHistoricBrawl DeckFormat = "HistoricBrawl"
	FormatPioneer       DeckFormat = "Pioneer"
	FormatModern        DeckFormat = "Modern"
	FormatLegacy        DeckFormat = "Legacy"
	FormatVintage       DeckFormat = "Vintage"
	FormatPauper        DeckFormat = "Pauper"
	FormatCommander     DeckFormat = "Commander"

	// FormatOther is the catch-all for formats nobody tracks.
	FormatOther DeckFormat = "Other"
	// FormatNone marks the absence of a format.
	FormatNone DeckFormat = "None"
)

// namedFormats are the values ParseDeckFormat recognizes.
var namedFormats = []DeckFormat{
	FormatStandard,
	FormatAlchemy,
	FormatExplorer,
	FormatHistoric,
	FormatTimeless,
	FormatBrawl,
	FormatHistoricBrawl,
	FormatPioneer,
	FormatModern,
	FormatLegacy,
	FormatVintage,
	FormatPauper,
	FormatCommander,
	FormatOther,
}

// FormatParse is the outcome of parsing a raw format string.
// When Recognized is false, Format is FormatNone and Raw holds the input.
type FormatParse struct {
	Format     DeckFormat
	Raw        string
	Recognized bool
}

// Or returns the parsed format, or fallback when the input was not recognized.
func (p FormatParse) Or(fallback DeckFormat) DeckFormat {
	if p.Recognized {
		return p.Format
	}
	return fallback
}

// ParseDeckFormat matches s case-insensitively against the known formats.
// It never substitutes a default; callers decide what an unrecognized value means.
func ParseDeckFormat(s string) FormatParse {
	trimmed := strings.TrimSpace(s)
	for _, f := range namedFormats {
		if strings.EqualFold(string(f), trimmed) {
			return FormatParse{Format: f, Raw: s, Recognized: true}
		}
	}
	return FormatParse{Format: FormatNone, Raw: s}
}

// String returns the canonical format name.
func (f DeckFormat) String() string {
	return string(f)
}
