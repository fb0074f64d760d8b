package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/ppiankov/verifier/internal/model"
)

// FeedCollector turns syndication feed items into replacement candidates.
// Each URL template is expanded with the subject and category and fetched in order
// until the requested count is met.
type FeedCollector struct {
	client    *http.Client
	templates []string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewFeedCollector creates a feed collector; client may be nil
func NewFeedCollector(cfg model.FeedConfig, client *http.Client, logger *slog.Logger) (*FeedCollector, error) {
	if len(cfg.URLTemplates) == 0 {
		return nil, fmt.Errorf("feed collector needs at least one URL template")
	}
	for _, tmpl := range cfg.URLTemplates {
		if !strings.Contains(tmpl, "{subject}") {
			return nil, fmt.Errorf("feed URL template %q has no {subject} placeholder", tmpl)
		}
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &FeedCollector{
		client:    client,
		templates: cfg.URLTemplates,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Collect pulls feeds until req.Count items with a link and title are found.
// It fails only when every feed fails.
func (f *FeedCollector) Collect(ctx context.Context, req Request) ([]model.CandidateRecord, error) {
	if req.Count <= 0 {
		return nil, nil
	}

	// gofeed parsers keep state between calls
	parser := gofeed.NewParser()
	seen := make(map[string]bool)
	out := make([]model.CandidateRecord, 0, req.Count)
	var errs []error

	for _, tmpl := range f.templates {
		if len(out) >= req.Count {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		feedURL := expandTemplate(tmpl, req)
		feed, err := f.fetch(ctx, parser, feedURL)
		if err != nil {
			f.logger.Warn("feed fetch failed", "url", feedURL, "error", err)
			errs = append(errs, err)
			continue
		}

		for _, it := range feed.Items {
			if len(out) >= req.Count {
				break
			}
			link := strings.TrimSpace(it.Link)
			title := strings.TrimSpace(it.Title)
			if link == "" || title == "" || seen[link] {
				continue
			}
			seen[link] = true

			content := htmlToText(it.Description)
			if content == "" {
				content = htmlToText(it.Content)
			}
			if content == "" {
				content = title
			}

			cand := model.CandidateRecord{
				Producer:       model.ProducerTag{ID: req.ProducerID, Kind: model.ProducerFeed},
				Category:       req.Category,
				Classification: req.Classification,
				Title:          title,
				Content:        content,
				SourceURL:      model.StringPtr(link),
			}
			if it.PublishedParsed != nil {
				cand.PublishedDate = model.TimePtr(*it.PublishedParsed)
			} else if it.UpdatedParsed != nil {
				cand.PublishedDate = model.TimePtr(*it.UpdatedParsed)
			}
			out = append(out, cand)
		}
	}

	if len(out) == 0 && len(errs) == len(f.templates) {
		return nil, fmt.Errorf("all feeds failed: %w", errors.Join(errs...))
	}
	return out, nil
}

func (f *FeedCollector) fetch(ctx context.Context, parser *gofeed.Parser, feedURL string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching feed: HTTP %d", resp.StatusCode)
	}

	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return feed, nil
}

func expandTemplate(tmpl string, req Request) string {
	return strings.NewReplacer(
		"{subject}", url.QueryEscape(req.SubjectID),
		"{category}", url.QueryEscape(req.Category),
	).Replace(tmpl)
}

// htmlToText flattens an HTML fragment to its visible text
func htmlToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
