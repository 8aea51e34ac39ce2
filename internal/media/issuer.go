package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mediahub/service/internal/storage"
)

// IssuerOptions configures how presigned URLs are issued and adapted for the
// public network.
type IssuerOptions struct {
	Expiration time.Duration
	// ProxyPath is the public path prefix under which a reverse proxy exposes
	// the store, e.g. "/api/media". Empty disables prefixing.
	ProxyPath string
	// RewriteDomain is a public scheme and host, e.g. "https://media.example.com".
	// A path is rejected: the issued path is always the store's own.
	// When set it takes precedence over ProxyPath for every issued URL.
	RewriteDomain string
}

// Issuer turns storage keys into time-limited fetch URLs.
type Issuer struct {
	store     storage.Storage
	ttl       time.Duration
	proxyPath string
	domain    *url.URL
}

// NewIssuer validates opts and returns an Issuer signing through store.
func NewIssuer(store storage.Storage, opts IssuerOptions) (*Issuer, error) {
	if opts.Expiration <= 0 {
		return nil, fmt.Errorf("presigned url expiration must be positive, got %s", opts.Expiration)
	}
	i := &Issuer{
		store:     store,
		ttl:       opts.Expiration,
		proxyPath: strings.TrimRight(opts.ProxyPath, "/"),
	}
	if opts.RewriteDomain != "" {
		d, err := parseDomain(opts.RewriteDomain)
		if err != nil {
			return nil, err
		}
		i.domain = d
	}
	return i, nil
}

// Issue presigns a GET for key with the configured expiration.
func (i *Issuer) Issue(ctx context.Context, key string) (*url.URL, error) {
	u, err := i.store.PresignGet(ctx, key, i.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue url for %s: %w: %w", key, ErrStore, err)
	}
	return u, nil
}

// PublicURL issues an absolute URL for key: rewritten onto the public domain
// when one is configured, otherwise the store's own URL.
func (i *Issuer) PublicURL(ctx context.Context, key string) (string, error) {
	u, err := i.Issue(ctx, key)
	if err != nil {
		return "", err
	}
	if i.domain != nil {
		return rewrite(u, i.domain), nil
	}
	return u.String(), nil
}

// AccessPath issues the link exposed on the media entity. Precedence: rewrite
// domain, then proxy path prefix, then the raw store URL.
func (i *Issuer) AccessPath(ctx context.Context, key string) (string, error) {
	u, err := i.Issue(ctx, key)
	if err != nil {
		return "", err
	}
	switch {
	case i.domain != nil:
		return rewrite(u, i.domain), nil
	case i.proxyPath != "":
		return proxied(u, i.proxyPath), nil
	default:
		return u.String(), nil
	}
}

// Rewrite moves rawURL onto domain's scheme and host. Path and query are kept
// as they are; the "?" is always present, so an empty query stays empty.
func Rewrite(rawURL, domain string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse presigned url: %w", err)
	}
	d, err := parseDomain(domain)
	if err != nil {
		return "", err
	}
	return rewrite(u, d), nil
}

// ProxyPath replaces rawURL's scheme and host with the path prefix a reverse
// proxy serves the store under, giving a host-relative link.
func ProxyPath(rawURL, prefix string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse presigned url: %w", err)
	}
	return proxied(u, strings.TrimRight(prefix, "/")), nil
}

func rewrite(u, domain *url.URL) string {
	return domain.Scheme + "://" + domain.Host + u.EscapedPath() + "?" + u.RawQuery
}

func proxied(u *url.URL, prefix string) string {
	return prefix + u.EscapedPath() + "?" + u.RawQuery
}

func parseDomain(domain string) (*url.URL, error) {
	d, err := url.Parse(domain)
	if err != nil || d.Scheme == "" || d.Host == "" {
		return nil, fmt.Errorf("rewrite domain %q must be an absolute URL", domain)
	}
	if (d.Path != "" && d.Path != "/") || d.RawQuery != "" {
		return nil, fmt.Errorf("rewrite domain %q must be a scheme and host only", domain)
	}
	return d, nil
}
