// Package agency infers best-effort organization details from a rendered
// page. Nothing here fails: a missing signal leaves its field empty.
package agency

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/utils"
)

// Name sources, in priority order.
const (
	SourceOGSiteName = "og:site_name"
	SourceAppName    = "application-name"
	SourceHeaderH1   = "header-h1"
	SourceHeaderLogo = "header-logo-alt"
	SourceHostname   = "hostname"
)

// Suffixes is the list of trailing tokens trimmed from agency names.
var Suffixes = []string{"Pty Ltd", "Real Estate", "Realty", "Properties", "Property", "Group", "LLC", "Ltd", "Limited"}

var suffixRe = buildSuffixRe(Suffixes)

func buildSuffixRe(suffixes []string) *regexp.Regexp {
	quoted := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(s), " ", `\s+`))
	}
	return regexp.MustCompile(`(?i)[\s,\-|]+(?:` + strings.Join(quoted, "|") + `)\.?\s*$`)
}

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(?\d{1,4}\)?[\s.\-]?){2,5}\d{2,4}`)
	// "2019-2024" in a copyright footer is not a phone number.
	yearRangeRe = regexp.MustCompile(`^(19|20)\d{2}\s*[-–]\s*(19|20)\d{2}$`)
)

var assetTLDs = map[string]struct{}{"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "svg": {}, "webp": {}, "css": {}, "js": {}}

// Extractor derives AgencyDetails from rendered HTML.
type Extractor struct {
	// Now returns the clock used for the copyright year.
	Now func() time.Time
}

// New returns an Extractor using the wall clock.
func New() *Extractor {
	return &Extractor{Now: time.Now}
}

// Extract never returns an error; parse failures degrade to the hostname
// fallback and empty contact fields.
func (e *Extractor) Extract(html string, pageURL *url.URL) model.AgencyDetails {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	var details model.AgencyDetails
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc = nil
	}

	_, name := pickName(doc, pageURL)
	details.Name = TrimSuffixes(name)
	if doc != nil {
		details.Email = findEmail(doc)
		details.Phone = findPhone(doc)
	}
	details.Website = utils.Origin(pageURL)
	details.CopyrightText = Copyright(now().Year(), details.Name)
	return details
}

// Copyright synthesizes the footer notice.
func Copyright(year int, name string) string {
	return fmt.Sprintf("© %d %s. All rights reserved.", year, name)
}

// TrimSuffixes removes one trailing real-estate suffix from name.
//
//	"Harbour Realty"        -> "Harbour"
//	"Acme Properties Pty Ltd" -> "Acme Properties"
func TrimSuffixes(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	trimmed := strings.TrimSpace(suffixRe.ReplaceAllString(name, ""))
	if trimmed == "" {
		return name
	}
	return trimmed
}

// pickName returns the first non-empty name candidate and its source.
func pickName(doc *goquery.Document, pageURL *url.URL) (source, value string) {
	if doc != nil {
		candidates := []struct {
			source string
			get    func() string
		}{
			{SourceOGSiteName, func() string { return metaContent(doc, `meta[property="og:site_name"]`) }},
			{SourceAppName, func() string { return metaContent(doc, `meta[name="application-name"]`) }},
			{SourceHeaderH1, func() string { return strings.TrimSpace(doc.Find("header h1").First().Text()) }},
			{SourceHeaderLogo, func() string { return headerLogoAlt(doc) }},
		}
		for _, c := range candidates {
			if v := c.get(); v != "" {
				return c.source, v
			}
		}
	}
	return SourceHostname, utils.HostLabel(pageURL)
}

func metaContent(doc *goquery.Document, sel string) string {
	v, _ := doc.Find(sel).First().Attr("content")
	return strings.TrimSpace(v)
}

func headerLogoAlt(doc *goquery.Document) string {
	var alt string
	doc.Find("header img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		a := strings.TrimSpace(img.AttrOr("alt", ""))
		if a == "" || !looksLikeBrand(img) {
			return true
		}
		alt = a
		return false
	})
	return alt
}

func looksLikeBrand(img *goquery.Selection) bool {
	attrs := strings.ToLower(strings.Join([]string{
		img.AttrOr("src", ""), img.AttrOr("alt", ""), img.AttrOr("class", ""), img.AttrOr("id", ""),
	}, " "))
	if strings.Contains(attrs, "logo") || strings.Contains(attrs, "brand") {
		return true
	}
	return img.ParentsFiltered(".logo, #logo, .brand, .navbar-brand").Length() > 0
}

func findEmail(doc *goquery.Document) string {
	var email string
	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		email = cleanHref(a.AttrOr("href", ""), "mailto:")
		return email == ""
	})
	if email != "" {
		return email
	}
	for _, m := range emailRe.FindAllString(visibleText(doc), -1) {
		tld := m[strings.LastIndex(m, ".")+1:]
		if _, asset := assetTLDs[strings.ToLower(tld)]; asset {
			continue
		}
		return m
	}
	return ""
}

func findPhone(doc *goquery.Document) string {
	var phone string
	doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		phone = cleanHref(a.AttrOr("href", ""), "tel:")
		return phone == ""
	})
	if phone != "" {
		return phone
	}
	for _, m := range phoneRe.FindAllString(visibleText(doc), -1) {
		m = strings.TrimSpace(m)
		if yearRangeRe.MatchString(m) {
			continue
		}
		if n := countDigits(m); n >= 8 && n <= 15 {
			return m
		}
	}
	return ""
}

// visibleText is the body text without script, style and template sources.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return body.Text()
}

func cleanHref(href, scheme string) string {
	v := strings.TrimSpace(href)
	if len(v) < len(scheme) || !strings.EqualFold(v[:len(scheme)], scheme) {
		return ""
	}
	v = v[len(scheme):]
	v, _, _ = strings.Cut(v, "?")
	if un, err := url.PathUnescape(v); err == nil {
		v = un
	}
	return strings.TrimSpace(v)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
