package analytics

import (
	"net"
	"net/url"
	"slices"
	"strings"

	"github.com/Zachkp/portfolio/internal/domain"
)

var (
	searchEngines  = []string{"google", "bing", "duckduckgo", "yahoo", "baidu", "yandex", "ecosia", "qwant", "startpage", "kagi"}
	socialNetworks = []string{"facebook", "twitter", "linkedin", "reddit", "instagram", "youtube", "tiktok", "pinterest", "mastodon", "threads"}

	searchHosts = map[string]bool{"search.brave.com": true}
	socialHosts = map[string]bool{
		"t.co": true, "x.com": true, "lnkd.in": true, "fb.com": true, "bsky.app": true, "news.ycombinator.com": true,
	}

	// utm_source values that are not a host name.
	socialSources = map[string]bool{"x": true, "fb": true, "ig": true, "hn": true, "hackernews": true, "bluesky": true}
	emailSources  = map[string]bool{"newsletter": true, "email": true, "mail": true}
)

// UTM holds the campaign parameters of a landing URL.
type UTM struct {
	Source   string
	Medium   string
	Campaign string
}

// ParseUTM reads utm_source, utm_medium and utm_campaign from a URL or a bare query string.
func ParseUTM(landingURL string) UTM {
	raw := landingURL
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	} else if strings.Contains(raw, "/") {
		return UTM{}
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return UTM{}
	}
	return UTM{
		Source:   strings.ToLower(strings.TrimSpace(q.Get("utm_source"))),
		Medium:   strings.ToLower(strings.TrimSpace(q.Get("utm_medium"))),
		Campaign: strings.TrimSpace(q.Get("utm_campaign")),
	}
}

// ReferrerHost returns the lower-cased host of a referrer without "www." and port,
// or "" when the referrer is empty or not an absolute URL.
func ReferrerHost(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Host == "" {
		return ""
	}
	return normalizeHost(u.Host)
}

// normalizeHost lower-cases host and drops the port, IPv6 brackets and "www.".
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	return strings.TrimPrefix(host, "www.")
}

// ClassifySource attributes a visit to a traffic source.
//
// Campaign parameters on the landing URL win over the referrer: utm_medium=email
// means email, and a utm_source naming a known engine or network is classified by
// that name. Otherwise the referrer decides. No referrer, or a referrer on selfHost,
// is direct traffic.
func ClassifySource(referrer, landingURL, selfHost string) string {
	utm := ParseUTM(landingURL)
	if utm.Medium == "email" || utm.Medium == "newsletter" || emailSources[utm.Source] {
		return domain.SourceEmail
	}
	if utm.Source != "" {
		if s := classifyName(utm.Source); s != "" {
			return s
		}
		if utm.Medium == "social" {
			return domain.SourceSocial
		}
	}

	host := ReferrerHost(referrer)
	if host == "" || (selfHost != "" && host == normalizeHost(selfHost)) {
		return domain.SourceDirect
	}
	if s := classifyHost(host); s != "" {
		return s
	}
	return domain.SourceReferral
}

func classifyName(name string) string {
	name = normalizeHost(name)
	if socialSources[name] {
		return domain.SourceSocial
	}
	if strings.Contains(name, ".") {
		return classifyHost(name)
	}
	if slices.Contains(searchEngines, name) {
		return domain.SourceSearch
	}
	if slices.Contains(socialNetworks, name) {
		return domain.SourceSocial
	}
	return ""
}

func classifyHost(host string) string {
	switch {
	case searchHosts[host]:
		return domain.SourceSearch
	case socialHosts[host]:
		return domain.SourceSocial
	}
	labels := strings.Split(host, ".")
	// The last label is the TLD.
	for _, l := range labels[:len(labels)-1] {
		if slices.Contains(searchEngines, l) {
			return domain.SourceSearch
		}
		if slices.Contains(socialNetworks, l) {
			return domain.SourceSocial
		}
	}
	return ""
}
