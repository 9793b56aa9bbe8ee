package api

import (
	"net/url"
	"strings"

	"github.com/andrebq/blogbox/auth"
)

// LoginRedirect appends target as the next parameter of loginURL. Slashes
// stay readable, so /posts/new-post/ becomes ?next=/posts/new-post/.
func LoginRedirect(loginURL, target string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + auth.FieldNext + "=" + strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
}

// LoginPath is the path part of loginURL, where the login handler is
// mounted.
func LoginPath(loginURL string) string {
	if i := strings.Index(loginURL, "?"); i >= 0 {
		return loginURL[:i]
	}
	return loginURL
}

// SafeNext reports whether next may be used as a post-login redirect:
// only paths on this host are accepted.
func SafeNext(next string) bool {
	if next == "" || next[0] != '/' {
		return false
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return false
	}
	for _, r := range next {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	u, err := url.Parse(next)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.User == nil
}

func (s *SecurityRealm) nextOrLanding(next string) string {
	if SafeNext(next) {
		return next
	}
	return s.opts.Landing
}
