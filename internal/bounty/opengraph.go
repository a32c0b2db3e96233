package bounty

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/Zachkp/portfolio/internal/domain"
)

// OpenGraph is the page metadata read from a public profile.
type OpenGraph struct {
	Title       string
	Image       string
	Description string
}

// OpenGraphScraper takes the figures from Inner and fills display name,
// avatar and bio from the og: tags of the public profile page. A failed
// fetch is logged and the inner snapshot is returned unchanged.
type OpenGraphScraper struct {
	Inner  Scraper
	Client *http.Client
	Log    zerolog.Logger
}

// NewOpenGraphScraper wraps inner with a 10 second HTTP client.
func NewOpenGraphScraper(inner Scraper, log zerolog.Logger) *OpenGraphScraper {
	return &OpenGraphScraper{
		Inner:  inner,
		Client: &http.Client{Timeout: 10 * time.Second},
		Log:    log.With().Str("component", "opengraph").Logger(),
	}
}

// Scrape implements Scraper.
func (s *OpenGraphScraper) Scrape(ctx context.Context, p *domain.BountyProfile) (*domain.BountySnapshot, error) {
	snap, err := s.Inner.Scrape(ctx, p)
	if err != nil {
		return nil, err
	}
	if p.ProfileURL == "" {
		return snap, nil
	}

	og, err := s.fetch(ctx, p.ProfileURL)
	if err != nil {
		s.Log.Warn().Err(err).Str("platform", p.Platform).Str("username", p.Username).Msg("Could not read profile metadata")
		return snap, nil
	}
	if og.Title != "" {
		snap.DisplayName = og.Title
	}
	if og.Image != "" {
		snap.AvatarURL = og.Image
	}
	if og.Description != "" {
		snap.Bio = og.Description
	}
	return snap, nil
}

func (s *OpenGraphScraper) fetch(ctx context.Context, url string) (*OpenGraph, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfolio-bounty-sync/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return ParseOpenGraph(io.LimitReader(resp.Body, 1<<20))
}

// ParseOpenGraph reads og:title, og:image and og:description from an HTML document.
func ParseOpenGraph(r io.Reader) (*OpenGraph, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing profile page: %w", err)
	}

	og := &OpenGraph{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			prop := getAttr(n, "property")
			if prop == "" {
				prop = getAttr(n, "name")
			}
			value := strings.TrimSpace(getAttr(n, "content"))
			switch strings.ToLower(prop) {
			case "og:title":
				og.Title = value
			case "og:image":
				og.Image = value
			case "og:description":
				og.Description = value
			}
		}
		// Metadata lives in <head>; stop at <body>.
		if n.Type == html.ElementNode && n.Data == "body" {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return og, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
