package parser

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// XPath expressions used by Inspect.
const (
	xpathCards      = `//div[@data-component-type='s-search-result']`
	xpathIdentified = `//div[@data-component-type='s-search-result'][normalize-space(@data-asin)!='']`
	xpathBanner     = `//div[contains(@class,'s-breadcrumb')]//span[contains(.,'result')]`
	xpathCaptcha    = `//form[contains(@action,'validateCaptcha')] | //input[@id='captchacharacters']`
	xpathTitle      = `//title`
)

// PageInfo summarizes a results page independently of card extraction.
type PageInfo struct {
	Title string

	// CardCount counts all result cards, including ones without an identifier.
	CardCount int

	// IdentifiedCount counts cards that carry a non-empty identifier.
	IdentifiedCount int

	// ResultBanner is the "1-48 of over 2,000 results" text, if shown.
	ResultBanner string

	// Captcha is true when the site served a robot-check page instead of results.
	Captcha bool
}

// Inspect reports page-level facts with XPath so the caller can tell an
// empty result set apart from a blocked or unexpected page.
func Inspect(markup string) (PageInfo, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return PageInfo{}, err
	}

	var info PageInfo

	if n := htmlquery.FindOne(doc, xpathTitle); n != nil {
		info.Title = strings.TrimSpace(htmlquery.InnerText(n))
	}

	cards, err := htmlquery.QueryAll(doc, xpathCards)
	if err != nil {
		return info, err
	}
	info.CardCount = len(cards)

	identified, err := htmlquery.QueryAll(doc, xpathIdentified)
	if err != nil {
		return info, err
	}
	info.IdentifiedCount = len(identified)

	if n := htmlquery.FindOne(doc, xpathBanner); n != nil {
		info.ResultBanner = strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
	}

	captcha, err := htmlquery.Query(doc, xpathCaptcha)
	if err != nil {
		return info, err
	}
	info.Captcha = captcha != nil

	return info, nil
}
