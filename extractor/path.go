package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// PathResolver maps a remote URI to a local file, for example by
// downloading it to a cache directory.
type PathResolver func(ctx context.Context, uri string) (string, error)

// LocalPath converts uri to a filesystem path. file:// URIs are
// unescaped, plain paths are returned unchanged and network URIs fail
// with ErrRemoteSource.
func LocalPath(uri string) (string, error) {
	if uri == "" {
		return "", errors.New("extractor: empty uri")
	}
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("extractor: parse %q: %w", uri, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		if u.Path == "" {
			return "", fmt.Errorf("extractor: %q has no path", uri)
		}
		return filepath.FromSlash(u.Path), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrRemoteSource, uri)
	}
}

// Resolve is LocalPath with a fallback to resolver for remote URIs.
// A nil resolver rejects them.
func Resolve(ctx context.Context, uri string, resolver PathResolver) (string, error) {
	p, err := LocalPath(uri)
	if err == nil || resolver == nil || !errors.Is(err, ErrRemoteSource) {
		return p, err
	}
	return resolver(ctx, uri)
}
