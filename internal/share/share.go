// Package share builds the public links for a published page.
package share

import (
	"fmt"
	"net/url"
	"strings"
)

// Links is everything the publish dialog shows for one page.
type Links struct {
	ViewerURL string `json:"viewerUrl"`
	QRURL     string `json:"qrUrl"`
}

// ViewerURL builds the public viewer link for a page id.
func ViewerURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/view?id=" + url.QueryEscape(id)
}

// QRURL builds a QR image URL for the viewer link, using the public
// qrserver API so the binary ships no QR encoder.
func QRURL(viewerURL string) string {
	return fmt.Sprintf("https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=%s",
		url.QueryEscape(viewerURL))
}

// For builds the full link set for a page id.
func For(baseURL, id string) Links {
	viewer := ViewerURL(baseURL, id)
	return Links{ViewerURL: viewer, QRURL: QRURL(viewer)}
}
