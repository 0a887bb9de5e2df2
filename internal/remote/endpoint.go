package remote

import (
	"net/url"
	"regexp"
	"strings"
)

var duplicateSlashes = regexp.MustCompile(`([^:]/)/+`)

func (s *HTTPStore) nodesEndpoint(path string) string {
	return endpoint(s.baseURL, NodesBasePath, path)
}

func (s *HTTPStore) propertiesEndpoint(path string) string {
	return endpoint(s.baseURL, PropertiesBasePath, path)
}

// endpoint joins base, api and an escaped content path, collapsing repeated
// slashes outside the scheme separator.
func endpoint(base, api, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	joined := base + "/" + api + "/" + strings.Join(segments, "/")
	return duplicateSlashes.ReplaceAllString(joined, "$1")
}
