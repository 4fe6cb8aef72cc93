package moxfield

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultAPIBaseURL is the Moxfield API host.
	DefaultAPIBaseURL = "https://api2.moxfield.com"

	// DefaultPageSize is the number of decks per search page.
	DefaultPageSize = 50
)

// SearchURL builds the deck search URL for one page of an owner's decks, newest
// updates first, main-board only.
func SearchURL(baseURL, owner string, page, pageSize int) string {
	params := url.Values{}
	params.Set("includePinned", "true")
	params.Set("showIllegal", "true")
	params.Set("authorUserNames", owner)
	params.Set("pageNumber", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("sortType", "updated")
	params.Set("sortDirection", "descending")
	params.Set("board", "mainboard")

	return fmt.Sprintf("%s/v2/decks/search?%s", strings.TrimRight(baseURL, "/"), params.Encode())
}

// DeckID returns the public id of a deck summary: the last path segment of its
// public URL, or PublicID when the URL has none.
func DeckID(s DeckSummary) string {
	if u, err := url.Parse(s.PublicURL); err == nil {
		path := strings.Trim(u.Path, "/")
		if i := strings.LastIndex(path, "/"); i >= 0 {
			path = path[i+1:]
		}
		if path != "" {
			return path
		}
	}
	return s.PublicID
}

// DeckURL builds the deck detail URL for a deck id.
func DeckURL(baseURL, deckID string) string {
	return fmt.Sprintf("%s/v3/decks/all/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(deckID))
}
