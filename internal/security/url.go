// Package security validates URLs before they land in published pages.
package security

import (
	"fmt"
	"net/url"
	"strings"
)

// Pages are public, so any URL a block carries ends up clickable in a
// stranger's browser. Field validation rejects the schemes that turn a
// shared page into a script vector.

// ValidateLinkURL checks a URL destined for an anchor or iframe: link
// blocks, image links, video embeds. Only http and https are accepted.
// Empty is fine; an unset field simply renders nothing clickable.
func ValidateLinkURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateImageSource checks an image src. On top of http(s), data URIs
// are allowed because the image compressor emits them, but only for image
// media types.
func ValidateImageSource(raw string) error {
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "data:") {
		if !strings.HasPrefix(raw, "data:image/") {
			return fmt.Errorf("data URI must carry an image media type")
		}
		return nil
	}
	return ValidateLinkURL(raw)
}
