// Package fetch locates and downloads the published availability
// workbooks from the city's release page.
package fetch

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"hoikumap/internal/ingest"
)

// Kind classifies which measure a workbook holds.
type Kind string

const (
	KindAccept   Kind = "accept"
	KindWait     Kind = "wait"
	KindEnrolled Kind = "enrolled"
)

// Link is one classified workbook link.
type Link struct {
	URL        string
	Kind       Kind
	FiscalYear int
	Label      string
}

var fileURLRe = regexp.MustCompile(`[^"'\s<>]+\.(?:xlsx|csv)`)

// IsCSV reports whether the link points at a CSV release rather than
// an xlsx workbook.
func (l Link) IsCSV() bool {
	return strings.HasSuffix(strings.ToLower(l.URL), ".csv")
}

// classification keywords, label text first. The URL patterns are the
// city's own file-number conventions and survive label rewording.
var (
	acceptWords   = []string{"受入可能", "受け入れ可能", "受入れ可能"}
	waitWords     = []string{"入所待ち", "待ち人数", "保留児童"}
	enrolledWords = []string{"入所児童", "在籍児童"}

	acceptURLHints   = []string{"0932_", "ukeire", "ukire"}
	waitURLHints     = []string{"0933_", "0929_", "mati", "machi"}
	enrolledURLHints = []string{"0934_", "0923_", "jido"}
)

func classify(label, href string) Kind {
	for _, w := range acceptWords {
		if strings.Contains(label, w) {
			return KindAccept
		}
	}
	for _, w := range waitWords {
		if strings.Contains(label, w) {
			return KindWait
		}
	}
	for _, w := range enrolledWords {
		if strings.Contains(label, w) {
			return KindEnrolled
		}
	}
	lower := strings.ToLower(href)
	for _, h := range acceptURLHints {
		if strings.Contains(lower, h) {
			return KindAccept
		}
	}
	for _, h := range waitURLHints {
		if strings.Contains(lower, h) {
			return KindWait
		}
	}
	for _, h := range enrolledURLHints {
		if strings.Contains(lower, h) {
			return KindEnrolled
		}
	}
	return ""
}

// ScrapeReleasePage extracts the classified workbook links from one
// release page. Fiscal years come from the 令和N年度 headings preceding
// each link block; a final regex sweep catches file URLs that sit
// outside anchor tags. The result is deduplicated and sorted by fiscal
// year, then URL, so runs are reproducible. Pages with no accept or no
// wait workbook fail loudly rather than producing empty snapshots.
func ScrapeReleasePage(pageURL string, html []byte) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("bad release page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse release page: %w", err)
	}

	seen := make(map[string]bool)
	var links []Link
	fiscalYear := 0

	doc.Find("h1, h2, h3, h4, a").Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) != "a" {
			if fy := ingest.FiscalYearFromText(sel.Text()); fy != 0 {
				fiscalYear = fy
			}
			return
		}
		href, ok := sel.Attr("href")
		lower := strings.ToLower(href)
		if !ok || (!strings.Contains(lower, ".xlsx") && !strings.Contains(lower, ".csv")) {
			return
		}
		abs := resolve(base, href)
		if seen[abs] {
			return
		}
		label := strings.TrimSpace(sel.Text())
		kind := classify(label, abs)
		if kind == "" {
			return
		}
		seen[abs] = true
		links = append(links, Link{URL: abs, Kind: kind, FiscalYear: fiscalYear, Label: label})
	})

	// sweep for urls the DOM walk missed (script blocks, plain text)
	for _, raw := range fileURLRe.FindAllString(string(html), -1) {
		abs := resolve(base, raw)
		if seen[abs] {
			continue
		}
		kind := classify("", abs)
		if kind == "" {
			continue
		}
		seen[abs] = true
		links = append(links, Link{URL: abs, Kind: kind})
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].FiscalYear != links[j].FiscalYear {
			return links[i].FiscalYear < links[j].FiscalYear
		}
		return links[i].URL < links[j].URL
	})

	if err := checkCoverage(links); err != nil {
		return nil, err
	}
	return links, nil
}

func checkCoverage(links []Link) error {
	var hasAccept, hasWait bool
	for _, l := range links {
		switch l.Kind {
		case KindAccept:
			hasAccept = true
		case KindWait:
			hasWait = true
		}
	}
	if !hasAccept {
		return fmt.Errorf("release page has no accept workbook links")
	}
	if !hasWait {
		return fmt.Errorf("release page has no wait workbook links")
	}
	return nil
}

func resolve(base *url.URL, href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
