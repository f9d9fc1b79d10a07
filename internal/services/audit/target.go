package audit

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"siteaudit/internal/ports"
)

// Target is a validated audit URL plus its registrable domain (eTLD+1).
type Target struct {
	URL         string
	Registrable string
}

// ParseTarget rejects empty and non-http(s) URLs before any network call.
func ParseTarget(rawurl string) (Target, error) {
	rawurl = strings.TrimSpace(rawurl)
	if rawurl == "" {
		return Target{}, ports.InvalidInput("URL is required")
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return Target{}, ports.InvalidInput("malformed URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, ports.InvalidInput("URL must use http or https")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Target{}, ports.InvalidInput("URL has no host")
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	return Target{URL: u.String(), Registrable: registrable}, nil
}
