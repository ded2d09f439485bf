package graph

import (
	_ "embed"

	graphql "github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphqls
var SDL string

// NewSchema parses the storefront SDL against r. It panics when a resolver
// does not match the schema, which is a programming error caught at start-up.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(SDL, r,
		graphql.UseFieldResolvers(),
		graphql.MaxDepth(12),
	)
}
