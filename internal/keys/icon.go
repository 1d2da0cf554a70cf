package keys

import (
	"net/url"
	"path"
	"strings"
)

// sanitizeKey replaces spaces with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

// Icon returns the canonical object key for a category icon URL, e.g.
// "https://ss3.4sqi.net/img/categories_v2/food/cafe_64.png" becomes
// "icons/ss3.4sqi.net/img/categories_v2/food/cafe_64.png".
func Icon(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "icons/other/" + url.PathEscape(sanitizeKey(rawURL))
	}
	p := path.Clean("/" + u.Path)
	return "icons/" + sanitizeKey(u.Host) + sanitizeKey(p)
}
