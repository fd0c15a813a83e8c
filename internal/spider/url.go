package spider

import (
	"fmt"
	"net/url"
	"strings"
)

// resolveURL resolves href against the page it was found on.
func resolveURL(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url %q: %w", pageURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// StoredFilename derives the content-addressed name {base}.{digest}{ext} from
// the final path segment of rawURL, kept percent-encoded as it appears in the
// link.
func StoredFilename(rawURL, digest string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrParse, rawURL, err)
	}
	segment := u.EscapedPath()
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	base, ext := splitExt(segment)
	if base == "" {
		return "", fmt.Errorf("%w: %q has no file name", ErrParse, rawURL)
	}
	return fmt.Sprintf("%s.%s%s", base, digest, ext), nil
}

// splitExt splits name at its last dot. Leading dots do not start an extension.
func splitExt(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || strings.TrimLeft(name[:i], ".") == "" {
		return name, ""
	}
	return name[:i], name[i:]
}
