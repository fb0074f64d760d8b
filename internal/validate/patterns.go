package validate

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/ppiankov/verifier/internal/model"
)

// placeholderLabel matches host labels made of a single repeated filler character
var placeholderLabel = regexp.MustCompile(`^(x{3,}|0{3,}|a{4,}|z{3,})$`)

// URLRules decides which URLs skip the network check and which are fabricated
type URLRules struct {
	exempt       map[string]bool
	fakeHosts    map[string]bool
	fakeSuffixes []string
	fakeTokens   map[string]bool
	rejectIPs    bool
}

// NewURLRules compiles the exempt and fake-URL rules from config
func NewURLRules(cfg *model.LivenessConfig) *URLRules {
	if cfg == nil {
		cfg = &model.DefaultConfig().Liveness
	}

	rules := &URLRules{
		exempt:     make(map[string]bool),
		fakeHosts:  make(map[string]bool),
		fakeTokens: make(map[string]bool),
		rejectIPs:  cfg.RejectIPHosts,
	}

	for _, domain := range cfg.ExemptDomains {
		rules.exempt[strings.ToLower(strings.TrimSpace(domain))] = true
	}

	for _, host := range cfg.FakeHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if suffix, ok := strings.CutPrefix(host, "*."); ok {
			rules.fakeSuffixes = append(rules.fakeSuffixes, suffix)
			continue
		}
		rules.fakeHosts[host] = true
	}

	for _, token := range cfg.FakeTokens {
		rules.fakeTokens[strings.ToLower(strings.TrimSpace(token))] = true
	}

	return rules
}

// Exempt returns the allowlist entry covering the URL's host, if any.
// Subdomains of an exempt domain are exempt too.
func (r *URLRules) Exempt(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}

	if r.exempt[host] {
		return host, true
	}

	if registrable, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && r.exempt[registrable] {
		return registrable, true
	}

	for domain := range r.exempt {
		if strings.HasSuffix(host, "."+domain) {
			return domain, true
		}
	}

	return "", false
}

// Fake returns the rule a fabricated-looking URL matched. Only the host is
// judged; a real site's path may legitimately contain any token.
func (r *URLRules) Fake(u *url.URL) (string, bool) {
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", false
	}

	if r.rejectIPs && net.ParseIP(host) != nil {
		return "ip-literal", true
	}

	if r.fakeHosts[host] {
		return host, true
	}
	for fake := range r.fakeHosts {
		if strings.HasSuffix(host, "."+fake) {
			return fake, true
		}
	}

	for _, suffix := range r.fakeSuffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return "*." + suffix, true
		}
	}

	labels := strings.Split(host, ".")
	// the TLD itself is not checked against tokens
	for _, label := range labels[:len(labels)-1] {
		if r.fakeTokens[label] {
			return "token:" + label, true
		}
		if placeholderLabel.MatchString(label) {
			return "placeholder:" + label, true
		}
	}

	return "", false
}

// checkScheme rejects anything a liveness probe cannot request
func checkScheme(u *url.URL) (string, bool) {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "unsupported scheme " + u.Scheme, false
	}
	if u.Hostname() == "" {
		return "missing host", false
	}
	return "", true
}
