// Package urlclassifier decides whether an untrusted string is plausibly a raw
// image resource, a web page, or something it cannot vouch for.
//
// Evaluation order is fixed: page templates are rejected before any image
// heuristic runs, so a URL that looks like both is a page. Anything that is not
// positively recognised is Unknown and must be treated as invalid.
package urlclassifier

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Kind is the classification of a URL.
type Kind string

const (
	ValidImage Kind = "valid_image"
	PageURL    Kind = "page_url"
	Unknown    Kind = "unknown"
)

type pagePattern struct {
	name  string
	hosts []string
	path  *regexp.Regexp
}

// pagePatterns are social and ticketing page templates. They never serve image bytes.
var pagePatterns = []pagePattern{
	{name: "eventbrite event page", hosts: []string{"eventbrite.com", "eventbrite.co.uk", "eventbrite.ca"}, path: regexp.MustCompile(`^/(e|o|d|cc)/`)},
	{name: "facebook event page", hosts: []string{"facebook.com", "fb.com", "fb.me"}, path: regexp.MustCompile(`^/events?/`)},
	{name: "facebook post page", hosts: []string{"facebook.com"}, path: regexp.MustCompile(`^/[^/]+/(posts|photos|videos)/`)},
	{name: "facebook profile page", hosts: []string{"facebook.com"}, path: regexp.MustCompile(`^/[^/.]+/?$`)},
	{name: "instagram post page", hosts: []string{"instagram.com"}, path: regexp.MustCompile(`^/(p|reel|reels|tv|stories)/`)},
	{name: "instagram profile page", hosts: []string{"instagram.com"}, path: regexp.MustCompile(`^/[^/.]+/?$`)},
	{name: "twitter status page", hosts: []string{"twitter.com", "x.com"}, path: regexp.MustCompile(`^/[^/]+/status/`)},
	{name: "tiktok video page", hosts: []string{"tiktok.com"}, path: regexp.MustCompile(`^/@[^/]+`)},
	{name: "ticketmaster event page", hosts: []string{"ticketmaster.com", "livenation.com"}, path: regexp.MustCompile(`/event/`)},
	{name: "meetup event page", hosts: []string{"meetup.com"}, path: regexp.MustCompile(`/events/`)},
	{name: "dice event page", hosts: []string{"dice.fm"}, path: regexp.MustCompile(`^/event/`)},
	{name: "songkick page", hosts: []string{"songkick.com"}, path: regexp.MustCompile(`^/(concerts|festivals|artists|venues)/`)},
	{name: "bandsintown page", hosts: []string{"bandsintown.com"}, path: regexp.MustCompile(`^/(e|a|v)/`)},
	{name: "link-in-bio page", hosts: []string{"linktr.ee"}, path: regexp.MustCompile(`^/`)},
	{name: "youtube video page", hosts: []string{"youtube.com", "youtu.be"}, path: regexp.MustCompile(`^/`)},
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".avif": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".heic": {},
}

// cdnHosts serve images under opaque paths. A leading "." matches any subdomain.
var cdnHosts = []string{
	"img.evbuc.com",
	"cdn.evbuc.com",
	".fbcdn.net",
	".cdninstagram.com",
	"pbs.twimg.com",
	"images.unsplash.com",
	"res.cloudinary.com",
	".imgix.net",
	"i.imgur.com",
	".googleusercontent.com",
	"images.squarespace-cdn.com",
	"static.wixstatic.com",
	"s1.ticketm.net",
	".ctfassets.net",
	".cloudfront.net",
}

var cdnPaths = []*regexp.Regexp{
	regexp.MustCompile(`/wp-content/uploads/`),
	regexp.MustCompile(`^/_next/image`),
	regexp.MustCompile(`^/cdn-cgi/image/`),
	regexp.MustCompile(`/image/upload/`),
}

// resizeParams are query keys used by image CDNs for on-the-fly transforms.
var resizeParams = []string{"w", "width", "h", "height", "format", "fm", "fit", "crop"}

type verdict struct {
	kind   Kind
	reason string
}

// Classify returns the classification of raw. It never touches the network.
func Classify(raw string) Kind {
	return evaluate(raw).kind
}

// Explain returns why raw was not accepted as an image, or "" when it was.
// It never changes the decision made by Classify.
func Explain(raw string) string {
	v := evaluate(raw)
	if v.kind == ValidImage {
		return ""
	}
	return v.reason
}

// FirstValidImage returns the first candidate classified as ValidImage, or "".
func FirstValidImage(candidates ...string) string {
	for _, c := range candidates {
		if Classify(c) == ValidImage {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

func evaluate(raw string) verdict {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return verdict{Unknown, "empty URL"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return verdict{Unknown, "unparseable URL: " + err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return verdict{Unknown, "not an http(s) URL"}
	}
	host := normalizeHost(u.Hostname())
	if host == "" {
		return verdict{Unknown, "URL has no host"}
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}

	for _, pp := range pagePatterns {
		if hostMatches(host, pp.hosts) && pp.path.MatchString(p) {
			return verdict{PageURL, "matches " + pp.name + " template on " + host + "; pages never resolve to image bytes"}
		}
	}

	if _, ok := imageExtensions[strings.ToLower(path.Ext(u.Path))]; ok {
		return verdict{ValidImage, ""}
	}
	for _, h := range cdnHosts {
		if host == h || (strings.HasPrefix(h, ".") && strings.HasSuffix(host, h)) {
			return verdict{ValidImage, ""}
		}
	}
	for _, re := range cdnPaths {
		if re.MatchString(p) {
			return verdict{ValidImage, ""}
		}
	}
	q := u.Query()
	for _, k := range resizeParams {
		if q.Has(k) {
			return verdict{ValidImage, ""}
		}
	}

	return verdict{Unknown, "no image file extension, image CDN pattern, or resizing parameters"}
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSuffix(h, "."))
	for _, prefix := range []string{"www.", "m.", "mobile.", "web."} {
		h = strings.TrimPrefix(h, prefix)
	}
	return h
}

// hostMatches reports whether host equals one of hosts or is a subdomain of it.
func hostMatches(host string, hosts []string) bool {
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
