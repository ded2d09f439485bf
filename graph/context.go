package graph

import "context"

// Site is the storefront site and locale a request is served for.
type Site struct {
	ID     string
	Locale string
}

type siteKey struct{}

func WithSite(ctx context.Context, s Site) context.Context {
	return context.WithValue(ctx, siteKey{}, s)
}

func SiteFromContext(ctx context.Context) (Site, bool) {
	s, ok := ctx.Value(siteKey{}).(Site)
	return s, ok
}
