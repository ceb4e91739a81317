/**
 * @description
 * Canonicalization of Amazon product URLs.
 * Reduces URL variants (tracking params, affiliate tags, SEO slugs) to one
 * stable identity used as the product's unique key.
 *
 * @dependencies
 * - standard "net/url", "regexp"
 */

package canonical

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// asinPattern matches the ASIN segment in /dp/, /gp/product/ and /product/ style paths
var asinPattern = regexp.MustCompile(`/(?:dp|gp/product|product)/([A-Z0-9]{10})(?:[/?]|$)`)

// Canonicalize maps a product URL to its canonical form.
// URLs carrying an ASIN collapse to scheme://host/dp/ASIN; anything else
// keeps its path with query string and fragment stripped.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid product url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid product url %q: scheme and host are required", rawURL)
	}

	if m := asinPattern.FindStringSubmatch(u.Path); m != nil {
		return fmt.Sprintf("%s://%s/dp/%s", u.Scheme, u.Host, m[1]), nil
	}

	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/"), nil
}

// IsAmazonHost reports whether the URL's host belongs to an Amazon domain.
// Domain validation happens before any extraction work is queued.
func IsAmazonHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), "amazon")
}
