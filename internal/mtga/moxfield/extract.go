package moxfield

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNoPayload means the page carries no <pre> block to extract.
	ErrNoPayload = errors.New("no payload in page")
	// ErrMalformedPayload means the <pre> block is not the expected JSON.
	ErrMalformedPayload = errors.New("malformed payload")
)

// ExtractJSON returns the JSON document a browser renders inside the page's first
// <pre> element. The API responses are plain JSON, which Chrome wraps in a <pre> tag.
func ExtractJSON(page string) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPayload, err)
	}

	pre := doc.Find("pre").First()
	if pre.Length() == 0 {
		return nil, ErrNoPayload
	}

	text := strings.TrimSpace(pre.Text())
	if text == "" {
		return nil, ErrNoPayload
	}
	if !json.Valid([]byte(text)) {
		return nil, ErrMalformedPayload
	}
	return json.RawMessage(text), nil
}

// Extract decodes the page's embedded JSON into a T.
func Extract[T any](page string) (*T, error) {
	raw, err := ExtractJSON(page)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &out, nil
}

// ExtractSearchResult decodes a deck search page.
func ExtractSearchResult(page string) (*SearchResult, error) {
	return Extract[SearchResult](page)
}

// ExtractDeck decodes a deck detail page.
func ExtractDeck(page string) (*Deck, error) {
	return Extract[Deck](page)
}
