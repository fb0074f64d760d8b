package validate

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	titleFolder = cases.Fold()
	hostProfile = idna.Lookup
)

// NormalizeURL reduces a URL to the form used for duplicate comparison:
// no query, fragment, userinfo, default port or trailing slash, with a
// lower-case ASCII host. Unparseable input is only trimmed and lower-cased.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if ascii, err := hostProfile.ToASCII(host); err == nil {
		host = ascii
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}

	path := strings.TrimRight(u.EscapedPath(), "/")

	return scheme + "://" + host + path
}

// NormalizeTitle applies NFKC, case folding, punctuation removal and
// whitespace collapsing.
func NormalizeTitle(title string) string {
	folded := titleFolder.String(norm.NFKC.String(title))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleSimilarity returns 1 - levenshtein/maxLen over runes of two
// normalized titles. Empty titles are never similar.
func TitleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
