package engage

import (
	"net/url"
	"strings"
)

// ImageProxyPath is the local route that serves upstream organization images.
const ImageProxyPath = "/api/organizationImage"

// RewriteImageRef routes a relative upstream image reference through the
// local image proxy. Absolute URLs, /engage paths and already rewritten
// references come back unchanged, so applying it twice is a no-op.
func RewriteImageRef(ref string) string {
	if ref == "" ||
		strings.HasPrefix(ref, "http") ||
		strings.HasPrefix(ref, "/engage") ||
		strings.HasPrefix(ref, ImageProxyPath) {
		return ref
	}
	return ImageProxyPath + "?imageUrl=" + EncodeComponent(ref)
}

// EncodeComponent escapes s for use as a query value, spaces as %20.
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
