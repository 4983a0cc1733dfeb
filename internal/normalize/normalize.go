// Package normalize canonicalizes article links so that the same
// underlying article always maps to the same string, whether it was seen
// directly or through a redirect wrapper with tracking parameters
// appended. The same Func must be applied to links on both the read
// side and the report side, otherwise exact-match lookups silently miss.
package normalize

import (
	"net/url"
	"regexp"
)

// Func canonicalizes a link. An empty input stays empty.
type Func func(link string) string

// Rule is a single rewrite step. It returns the link unchanged when it
// does not apply. The wrapper sites change their markup and parameters
// over time, so rules are composed rather than hard-coded into callers.
type Rule func(link string) string

// maxPasses bounds the fixpoint iteration in New. Two wrapped levels is
// the most observed in the wild.
const maxPasses = 4

// New composes rules into a normalizer. Rules are applied in order,
// repeatedly, until the link stops changing.
func New(rules ...Rule) Func {
	return func(link string) string {
		for i := 0; i < maxPasses; i++ {
			prev := link
			for _, rule := range rules {
				link = rule(link)
			}
			if link == prev {
				break
			}
		}
		return link
	}
}

// Default returns the normalizer used in production: unwrap Facebook
// redirect links, then strip tracking parameters.
func Default() Func {
	return New(UnwrapFacebookRedirect, StripTrackingParams)
}

var fbRedirectRe = regexp.MustCompile(`^https?://(?:www\.|m\.|l\.)?facebook\.com/l\.php\?u=([^&]*)`)

// UnwrapFacebookRedirect rewrites an l.php?u= redirect wrapper to its
// decoded target.
func UnwrapFacebookRedirect(link string) string {
	m := fbRedirectRe.FindStringSubmatch(link)
	if m == nil {
		return link
	}
	target, err := url.QueryUnescape(m[1])
	if err != nil || target == "" {
		return link
	}
	return target
}

var trackingParams = map[string]bool{
	"utm_source":      true,
	"utm_medium":      true,
	"utm_campaign":    true,
	"utm_term":        true,
	"utm_content":     true,
	"fbclid":          true,
	"fb_ref":          true,
	"fb_source":       true,
	"fb_action_ids":   true,
	"fb_action_types": true,
}

// StripTrackingParams removes known tracking query parameters appended
// by the source site. The surviving query is always re-encoded, so links
// that differ only in parameter order or escaping converge on one
// canonical string. Links that do not parse are passed through
// untouched.
func StripTrackingParams(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.RawQuery == "" {
		return link
	}

	q := u.Query()
	for k := range q {
		if trackingParams[k] {
			q.Del(k)
		}
	}

	u.RawQuery = q.Encode()
	return u.String()
}
