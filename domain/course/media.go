package course

import (
	"net/url"
	"path"
	"strings"
)

// ArtifactName derives the blob name from a course media URL:
// the last path segment, percent-decoded.
func ArtifactName(mediaURL string) (string, error) {
	if strings.TrimSpace(mediaURL) == "" {
		return "", NewInvalidMediaURLError(mediaURL, "media url is empty")
	}
	u, err := url.Parse(mediaURL)
	if err != nil {
		return "", NewInvalidMediaURLError(mediaURL, err.Error())
	}
	if u.Scheme == "" || u.Host == "" {
		return "", NewInvalidMediaURLError(mediaURL, "media url must be absolute")
	}

	p := u.EscapedPath()
	if p == "" || strings.HasSuffix(p, "/") {
		return "", NewInvalidMediaURLError(mediaURL, "media url has no file segment")
	}
	name, err := url.PathUnescape(path.Base(p))
	if err != nil {
		return "", NewInvalidMediaURLError(mediaURL, err.Error())
	}
	if name == "" || name == "." || name == "/" {
		return "", NewInvalidMediaURLError(mediaURL, "media url has no file segment")
	}
	return name, nil
}
