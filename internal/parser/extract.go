package parser

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/shopscrape/internal/config"
	"github.com/IshaanNene/shopscrape/internal/types"
)

// Extractor maps result cards to products using CSS selectors via goquery.
type Extractor struct {
	sel    config.SelectorConfig
	logger *slog.Logger
}

// NewExtractor creates an extractor for the given selector set.
func NewExtractor(sel config.SelectorConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		sel:    sel,
		logger: logger.With("component", "extractor"),
	}
}

// Extract implements Parser.
func (e *Extractor) Extract(html, baseDomain string) []types.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Only a reader failure gets here; the tree builder itself is permissive.
		e.logger.Warn("parse document", "error", err)
		return nil
	}
	return e.ExtractDocument(doc, baseDomain)
}

// ExtractDocument runs extraction on an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document, baseDomain string) []types.Product {
	base, err := url.Parse(baseDomain)
	if err != nil {
		e.logger.Warn("invalid base domain, links left unresolved", "domain", baseDomain, "error", err)
		base = nil
	}

	var products []types.Product
	skipped := 0

	doc.Find(e.sel.Card).Each(func(_ int, card *goquery.Selection) {
		asin := strings.TrimSpace(card.AttrOr(e.sel.IDAttribute, ""))
		if asin == "" {
			skipped++
			return
		}
		products = append(products, e.extractCard(card, asin, base))
	})

	e.logger.Debug("cards extracted", "products", len(products), "skipped", skipped)
	return products
}

func (e *Extractor) extractCard(card *goquery.Selection, asin string, base *url.URL) types.Product {
	p := types.Product{ASIN: asin}

	anchor := card.Find(e.sel.Title).First()
	if anchor.Length() == 0 {
		anchor = card.Find(e.sel.TitleFallback).First()
	}
	if anchor.Length() > 0 {
		p.Title = cleanText(anchor)
		if href := strings.TrimSpace(anchor.AttrOr("href", "")); href != "" {
			p.Link = resolve(base, href)
		}
	}

	if img := card.Find(e.sel.Image).First(); img.Length() > 0 {
		p.Image = strings.TrimSpace(img.AttrOr("src", ""))
	}

	p.Price = e.price(card)
	p.Rating = firstText(card, e.sel.Rating)
	p.Reviews = firstText(card, e.sel.Reviews)

	return p
}

// price prefers the whole/fraction pair and falls back to the
// screen-reader-only text.
func (e *Extractor) price(card *goquery.Selection) string {
	whole := card.Find(e.sel.PriceWhole).First()
	if whole.Length() > 0 {
		w := strings.TrimRight(cleanText(whole), ".,")
		frac := card.Find(e.sel.PriceFraction).First()
		if frac.Length() > 0 {
			if f := cleanText(frac); f != "" {
				return w + "." + f
			}
		}
		return w
	}
	return firstText(card, e.sel.PriceOffscreen)
}

func firstText(s *goquery.Selection, selector string) string {
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return ""
	}
	return cleanText(found)
}

// cleanText collapses runs of whitespace in the element's text.
func cleanText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// resolve makes href absolute against base. An unparsable href is kept as is.
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
