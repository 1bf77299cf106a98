package discovery

import (
	"context"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"planscape/document"
	"planscape/models"
	"planscape/scraper/search"
	"planscape/utils"
)

// maxHarvestedLinks bounds how many PDF links are followed from one landing page.
const maxHarvestedLinks = 5

// DocumentFetcher retrieves a candidate URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*document.Document, error)
}

// PageRenderer returns the script-rendered HTML of a landing page.
type PageRenderer interface {
	RenderHTML(ctx context.Context, url string) (string, error)
}

// Resolver finds the Summary of Benefits document for one plan at a time.
// It is safe for concurrent use as long as its collaborators are.
type Resolver struct {
	searcher    search.Searcher
	fetcher     DocumentFetcher
	extractor   document.TextExtractor
	resultLimit int
	pageCap     int
	logger      *utils.Logger

	// Renderer, when set, renders indirect landing pages before links are
	// harvested from them.
	Renderer PageRenderer
}

// NewResolver creates a Resolver.
func NewResolver(s search.Searcher, f DocumentFetcher, x document.TextExtractor, resultLimit, pageCap int, logger *utils.Logger) *Resolver {
	return &Resolver{
		searcher:    s,
		fetcher:     f,
		extractor:   x,
		resultLimit: resultLimit,
		pageCap:     pageCap,
		logger:      logger,
	}
}

// candidate is a URL to try and whether it came from a search result
// pointing directly at a document.
type candidate struct {
	url    string
	direct bool
}

// ResolveOne returns the first candidate URL whose document passes the
// plan's Matcher. Every per-candidate failure moves on to the next one.
func (r *Resolver) ResolveOne(ctx context.Context, p models.PlanDescriptor) (string, bool) {
	m := NewMatcher(p)
	seen := utils.NewURLSet()

	for _, q := range BuildQueries(p) {
		if ctx.Err() != nil {
			return "", false
		}
		results, err := r.searcher.Search(ctx, q, r.resultLimit)
		if err != nil {
			r.logger.Warn("[discovery] %s: search failed: %v", p.CMSPlanKey, err)
			continue
		}
		for _, c := range partition(results) {
			if u, ok := r.tryCandidate(ctx, m, c, seen, true); ok {
				return u, true
			}
		}
	}
	return "", false
}

// tryCandidate fetches one URL. PDFs are verified; HTML pages are expanded
// into their PDF links when expand is set.
func (r *Resolver) tryCandidate(ctx context.Context, m *Matcher, c candidate, seen *utils.URLSet, expand bool) (string, bool) {
	if !seen.Add(c.url) {
		return "", false
	}

	doc, err := r.fetcher.Fetch(ctx, c.url)
	if err != nil {
		r.logger.Debug("[discovery] skip %s: %v", c.url, err)
		return "", false
	}

	if !doc.IsHTML {
		text, err := r.extractor.ExtractText(doc.Body, r.pageCap)
		if err != nil {
			r.logger.Debug("[discovery] skip %s: %v", c.url, err)
			return "", false
		}
		if !m.Accepts(text) {
			r.logger.Debug("[discovery] reject %s: identifiers or marker missing", c.url)
			return "", false
		}
		return c.url, true
	}

	if !expand {
		return "", false
	}

	html := string(doc.Body)
	if r.Renderer != nil && !c.direct {
		rendered, err := r.Renderer.RenderHTML(ctx, c.url)
		if err != nil {
			r.logger.Debug("[discovery] render %s: %v", c.url, err)
		} else {
			html = rendered
		}
	}

	base := doc.FinalURL
	if base == "" {
		base = c.url
	}
	for _, link := range harvestLinks(base, html, maxHarvestedLinks) {
		if u, ok := r.tryCandidate(ctx, m, candidate{url: link, direct: true}, seen, false); ok {
			return u, true
		}
	}
	return "", false
}

// partition orders results with direct document links first, each group
// keeping provider rank.
func partition(results []search.Result) []candidate {
	var direct, indirect []candidate
	for _, res := range results {
		if looksLikePDF(res.URL) {
			direct = append(direct, candidate{url: res.URL, direct: true})
		} else {
			indirect = append(indirect, candidate{url: res.URL})
		}
	}
	return append(direct, indirect...)
}

func looksLikePDF(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".pdf")
}

// harvestLinks returns up to limit absolute PDF links from html. Links
// whose text or href mention a summary of benefits come first.
func harvestLinks(baseURL, html string, limit int) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	type link struct {
		url   string
		score int
	}
	var links []link
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment, abs.RawFragment = "", ""
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		s := abs.String()
		if seen[s] || !looksLikePDF(s) {
			return
		}
		seen[s] = true

		label := strings.ToLower(a.Text() + " " + href)
		score := 0
		if markerRegexp.MatchString(label) || strings.Contains(label, "summary-of-benefits") ||
			strings.Contains(label, "summary_of_benefits") {
			score = 1
		}
		links = append(links, link{url: s, score: score})
	})

	sort.SliceStable(links, func(i, j int) bool { return links[i].score > links[j].score })
	out := make([]string, 0, limit)
	for _, l := range links {
		if len(out) == limit {
			break
		}
		out = append(out, l.url)
	}
	return out
}
