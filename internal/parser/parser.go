package parser

import (
	"github.com/IshaanNene/shopscrape/internal/types"
)

// Parser maps one rendered search-results page to product records.
type Parser interface {
	// Extract returns one record per qualifying result card, in document
	// order. baseDomain resolves relative links. It never fails; missing
	// sub-elements become empty fields.
	Extract(html, baseDomain string) []types.Product
}
