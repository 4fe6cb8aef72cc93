package wildcards

import "strings"

// Rarity represents the wildcard tier of a card.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityMythic   Rarity = "mythic"
	RaritySpecial  Rarity = "special"
	RarityUnknown  Rarity = "unknown"
)

// Rarities lists the rarity tiers that have a wildcard bucket, in report order.
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityMythic, RaritySpecial}

// ParseRarity maps a catalog rarity string onto a Rarity.
// Matching ignores case and surrounding whitespace. Unrecognized or empty input
// returns RarityUnknown and false.
func ParseRarity(s string) (Rarity, bool) {
	switch Rarity(strings.ToLower(strings.TrimSpace(s))) {
	case RarityCommon:
		return RarityCommon, true
	case RarityUncommon:
		return RarityUncommon, true
	case RarityRare:
		return RarityRare, true
	case RarityMythic:
		return RarityMythic, true
	case RaritySpecial:
		return RaritySpecial, true
	}
	return RarityUnknown, false
}

// String returns the lowercase rarity name.
func (r Rarity) String() string {
	return string(r)
}
