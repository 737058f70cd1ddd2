package github

import (
	"vigil-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// the extractors below never fail, anything missing or malformed is resolved to a
// zero value ("" or 0).

const (
	usernameSelector      = "span.p-nickname.vcard-username.d-block"
	followersSelector     = `a[href$="?tab=followers"] .text-bold`
	followingSelector     = `a[href$="?tab=following"] .text-bold`
	starsAnchorSelector   = `a[href$="?tab=stars"]`
	contributionsSelector = "h2.f4.text-normal.mb-2"
	avatarSelector        = "img.avatar-user"
	organizationSelector  = ".p-org"
	locationSelector      = ".p-label"
)

// starsCounterStrategies are tried in order inside the stars anchor, newest markup first.
// Several layouts can be live at once, append new ones to the front.
var starsCounterStrategies = []htmlutil.Strategy{
	htmlutil.SelectorStrategy("span.Counter"),
	htmlutil.SelectorStrategy(`span[data-component="counter"] span[aria-hidden="true"]`),
	htmlutil.SelectorStrategy(`span[aria-hidden="true"]`),
	htmlutil.SelectorStrategy("span.prc-CounterLabel"),
	htmlutil.SelectorStrategy(".text-bold"),
}

func ExtractUsername(doc *goquery.Document) string {
	return htmlutil.TrimmedText(doc.Find(usernameSelector))
}

// ExtractCounter reads the text of every node matching selector and normalizes it with NormalizeCount.
func ExtractCounter(doc *goquery.Document, selector string) int {
	return NormalizeCount(htmlutil.TrimmedText(doc.Find(selector)))
}

func ExtractStars(doc *goquery.Document) int {
	anchor := doc.Find(starsAnchorSelector).First()
	counter, _, ok := htmlutil.FirstMatch(anchor, starsCounterStrategies)
	if !ok {
		return 0
	}
	return NormalizeCount(htmlutil.TrimmedText(counter))
}

func ExtractContributions(doc *goquery.Document) int {
	heading := doc.Find(contributionsSelector).First()
	return ParseContributions(heading.Text())
}

func ExtractAvatar(doc *goquery.Document) string {
	return doc.Find(avatarSelector).First().AttrOr("src", "")
}

func ExtractOptionalText(doc *goquery.Document, selector string) string {
	return htmlutil.TrimmedText(doc.Find(selector))
}
