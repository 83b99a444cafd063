package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"DailyCast/internal/domain"
	"DailyCast/internal/scanner"
)

const descriptionLimit = 400

var (
	urlExpr    = regexp.MustCompile(`https?://[^\s<"]+`)
	pointsExpr = regexp.MustCompile(`(?i)points:\s*(\d+)`)
)

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC3339Nano,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FeedScanner normalizes RSS 2.0 and Atom 1.0 documents. Both item and
// entry elements are recognised, so a source labelled with the wrong type
// still yields candidates.
type FeedScanner struct {
	format string
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewRSSScanner registers under the "rss" source type.
func NewRSSScanner() *FeedScanner {
	return &FeedScanner{format: "rss"}
}

// NewAtomScanner registers under the "atom" source type.
func NewAtomScanner() *FeedScanner {
	return &FeedScanner{format: "atom"}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return f.format
}

// Scan decodes entries one at a time. When the document breaks off, the
// entries decoded so far are returned along with the error.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	fetchedAt := req.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	dec := xml.NewDecoder(bytes.NewReader(req.Body))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var candidates []domain.Candidate
	for {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return candidates, nil
		}
		if err != nil {
			return candidates, fmt.Errorf("%s feed %s: %w", f.format, req.Source.Name, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "item" && start.Name.Local != "entry" {
			continue
		}

		var item feedItem
		if err := dec.DecodeElement(&item, &start); err != nil {
			return candidates, fmt.Errorf("%s feed %s: entry %d: %w", f.format, req.Source.Name, len(candidates)+1, err)
		}
		candidates = append(candidates, item.candidate(fetchedAt))
	}
}

type feedItem struct {
	Title       string     `xml:"title"`
	Links       []feedLink `xml:"link"`
	GUID        string     `xml:"guid"`
	ID          string     `xml:"id"`
	Description string     `xml:"description"`
	Summary     string     `xml:"summary"`
	Content     string     `xml:"content"`
	PubDate     string     `xml:"pubDate"`
	Published   string     `xml:"published"`
	Updated     string     `xml:"updated"`
	Date        string     `xml:"date"`
	Score       string     `xml:"score"`
}

type feedLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

func (it feedItem) candidate(fetchedAt time.Time) domain.Candidate {
	description := firstText(it.Description, it.Summary, it.Content)
	plain := stripMarkup(description)

	return domain.Candidate{
		Title:       collapseSpace(it.Title),
		Link:        resolveLink(firstText(it.link(), it.GUID, it.ID)),
		Description: truncateRunes(plain, descriptionLimit),
		Published:   parsePublished(firstText(it.PubDate, it.Published, it.Updated, it.Date), fetchedAt),
		Score:       parseScore(it.Score, plain),
	}
}

// link prefers an alternate href (Atom), then element text (RSS).
func (it feedItem) link() string {
	for _, l := range it.Links {
		if l.Href != "" && (l.Rel == "" || l.Rel == "alternate") {
			return l.Href
		}
	}
	for _, l := range it.Links {
		if text := strings.TrimSpace(l.Text); text != "" {
			return text
		}
	}
	for _, l := range it.Links {
		if l.Href != "" && l.Rel != "self" {
			return l.Href
		}
	}
	return ""
}

// resolveLink keeps a bare http(s) URL as-is and otherwise falls back to
// the first URL embedded in the raw field.
func resolveLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if isBareURL(raw) {
		return raw
	}
	if match := urlExpr.FindString(raw); match != "" {
		return match
	}
	return raw
}

func isBareURL(raw string) bool {
	if strings.ContainsAny(raw, " \t\r\n<\"") {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func stripMarkup(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

func parsePublished(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return fallback
}

func parseScore(raw, description string) int {
	if score, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && score > 0 {
		return score
	}
	if match := pointsExpr.FindStringSubmatch(description); len(match) == 2 {
		if score, err := strconv.Atoi(match[1]); err == nil {
			return score
		}
	}
	return 0
}

func firstText(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
