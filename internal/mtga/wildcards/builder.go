// Package wildcards computes how many wildcards of each rarity a deck portfolio needs.
//
// Each deck is tallied by rarity on its own, and its cards are folded into one
// collection per tracked format that keeps, for every card, the highest number of
// copies any single deck plays.
package wildcards

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ramonehamilton/wildcard-tally/internal/mtga/moxfield"
)

// UnknownDeckName is used for decks without a name.
const UnknownDeckName = "Unknown Deck"

var (
	// ErrUnrecognizedFormat is returned for decks with an unknown format under PolicyError.
	ErrUnrecognizedFormat = errors.New("unrecognized deck format")
	// ErrFormatDropped is returned for decks with an unknown format under PolicyDrop.
	ErrFormatDropped = errors.New("deck dropped: unrecognized format")
)

// UnknownFormatPolicy decides what happens to a deck whose format is not recognized.
type UnknownFormatPolicy string

const (
	// PolicyOther tallies the deck under FormatOther.
	PolicyOther UnknownFormatPolicy = "other"
	// PolicyDrop leaves the deck out of both the tallies and the collections.
	PolicyDrop UnknownFormatPolicy = "drop"
	// PolicyError fails the deck with ErrUnrecognizedFormat.
	PolicyError UnknownFormatPolicy = "error"
)

// ParseUnknownFormatPolicy parses a policy name. The empty string means PolicyOther.
func ParseUnknownFormatPolicy(s string) (UnknownFormatPolicy, error) {
	switch p := UnknownFormatPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyOther, nil
	case PolicyOther, PolicyDrop, PolicyError:
		return p, nil
	}
	return "", fmt.Errorf("unknown format policy %q (want other, drop or error)", s)
}

// BuilderStats counts what the builder did across all decks.
type BuilderStats struct {
	Decks            int64
	EntriesMerged    int64
	EntriesSkipped   int64
	UnknownRarities  int64
	FormatFallbacks  int64
	FormatRejections int64
	UntrackedFormats int64
}

// Builder turns deck payloads into tallies and folds their cards into collections.
// Builder is safe for concurrent use.
type Builder struct {
	collections *Collections
	policy      UnknownFormatPolicy
	logger      *zap.Logger

	decks            atomic.Int64
	entriesMerged    atomic.Int64
	entriesSkipped   atomic.Int64
	unknownRarities  atomic.Int64
	formatFallbacks  atomic.Int64
	formatRejections atomic.Int64
	untracked        atomic.Int64
}

// NewBuilder creates a Builder that merges into collections.
func NewBuilder(collections *Collections, policy UnknownFormatPolicy, logger *zap.Logger) *Builder {
	if policy == "" {
		policy = PolicyOther
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		collections: collections,
		policy:      policy,
		logger:      logger,
	}
}

// Collections returns the collections the builder merges into.
func (b *Builder) Collections() *Collections {
	return b.collections
}

// Stats returns a snapshot of the builder counters.
func (b *Builder) Stats() BuilderStats {
	return BuilderStats{
		Decks:            b.decks.Load(),
		EntriesMerged:    b.entriesMerged.Load(),
		EntriesSkipped:   b.entriesSkipped.Load(),
		UnknownRarities:  b.unknownRarities.Load(),
		FormatFallbacks:  b.formatFallbacks.Load(),
		FormatRejections: b.formatRejections.Load(),
		UntrackedFormats: b.untracked.Load(),
	}
}

// Build tallies deck by rarity and merges each of its cards into the collection of
// the deck's format. Every entry is merged before it is counted. A card played on
// more than one board counts once, at its largest quantity. Entries with an
// unrecognized rarity are merged as RarityUnknown but counted in no bucket; entries
// without a card id are skipped.
func (b *Builder) Build(deck *moxfield.Deck) (DeckTally, error) {
	if deck == nil {
		return DeckTally{}, fmt.Errorf("nil deck")
	}

	name := deck.Name
	if name == "" {
		name = UnknownDeckName
	}
	log := b.logger.With(zap.String("deck", name))

	format, err := b.resolveFormat(deck.Format, log)
	if err != nil {
		return DeckTally{}, err
	}

	tally := DeckTally{
		DeckName: name,
		URL:      deck.PublicURL,
		Format:   format,
	}
	if ts, ok := parseTimestamp(deck.LastUpdatedAtUTC); ok {
		tally.LastUpdatedAt = ts
	} else if deck.LastUpdatedAtUTC != "" {
		log.Warn("Unparseable last-updated timestamp", zap.String("value", deck.LastUpdatedAtUTC))
	}

	collection := b.collections.For(format)
	if collection == nil {
		b.untracked.Add(1)
	}

	counted := make(map[string]int)
	for _, entry := range boardEntries(deck.Boards) {
		info := entry.Card
		if info.UniqueCardID == "" {
			b.entriesSkipped.Add(1)
			log.Warn("Card entry has no unique id, skipping", zap.String("card", info.Name))
			continue
		}

		quantity := entry.QuantityOrDefault()
		rarity, known := ParseRarity(info.Rarity)

		if collection != nil {
			collection.Merge(Card{
				UniqueID:    info.UniqueCardID,
				ScryfallID:  info.ScryfallID,
				Name:        info.Name,
				CMC:         info.CMC,
				TypeLine:    info.TypeLine,
				Colors:      info.Colors,
				Rarity:      rarity,
				MaxQuantity: quantity,
			})
		}
		b.entriesMerged.Add(1)

		if !known {
			b.unknownRarities.Add(1)
			if info.Rarity == "" {
				log.Warn("Card does not have a rarity specified", zap.String("card", info.Name))
			} else {
				log.Warn("Unexpected rarity", zap.String("card", info.Name), zap.String("rarity", info.Rarity))
			}
			continue
		}
		if extra := quantity - counted[info.UniqueCardID]; extra > 0 {
			tally.add(rarity, extra)
			counted[info.UniqueCardID] = quantity
		}
	}

	b.decks.Add(1)
	return tally, nil
}

func (b *Builder) resolveFormat(raw string, log *zap.Logger) (DeckFormat, error) {
	parsed := ParseDeckFormat(raw)
	if parsed.Recognized {
		return parsed.Format, nil
	}

	switch b.policy {
	case PolicyDrop:
		b.formatRejections.Add(1)
		log.Warn("Unrecognized format, dropping deck", zap.String("format", raw))
		return FormatNone, fmt.Errorf("%w: %q", ErrFormatDropped, raw)
	case PolicyError:
		b.formatRejections.Add(1)
		log.Warn("Unrecognized format", zap.String("format", raw))
		return FormatNone, fmt.Errorf("%w: %q", ErrUnrecognizedFormat, raw)
	default:
		b.formatFallbacks.Add(1)
		log.Warn("Unrecognized format, defaulting to Other", zap.String("format", raw))
		return parsed.Or(FormatOther), nil
	}
}

// boardEntries returns the main-board entries followed by the side-board entries,
// each ordered by entry key so tallies do not depend on map iteration order.
func boardEntries(boards moxfield.Boards) []moxfield.BoardEntry {
	entries := make([]moxfield.BoardEntry, 0, len(boards.Mainboard.Cards)+len(boards.Sideboard.Cards))
	for _, board := range []moxfield.Board{boards.Mainboard, boards.Sideboard} {
		keys := make([]string, 0, len(board.Cards))
		for k := range board.Cards {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entries = append(entries, board.Cards[k])
		}
	}
	return entries
}
