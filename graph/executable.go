package graph

import (
	"context"

	gqlgen "github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/goccy/go-json"
	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ExecutableSchema serves the resolver schema through the gqlgen handler
// stack. gqlgen parses, validates and caches the operation against the
// same SDL; execution is delegated to the resolver schema.
type ExecutableSchema struct {
	schema *graphql.Schema
	ast    *ast.Schema
}

var _ gqlgen.ExecutableSchema = (*ExecutableSchema)(nil)

func NewExecutableSchema(schema *graphql.Schema) (*ExecutableSchema, error) {
	parsed, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: SDL})
	if err != nil {
		return nil, err
	}
	return &ExecutableSchema{schema: schema, ast: parsed}, nil
}

func (e *ExecutableSchema) Schema() *ast.Schema { return e.ast }

func (e *ExecutableSchema) Complexity(context.Context, string, string, int, map[string]any) (int, bool) {
	return 0, false
}

func (e *ExecutableSchema) Exec(ctx context.Context) gqlgen.ResponseHandler {
	oc := gqlgen.GetOperationContext(ctx)
	if oc.DisableIntrospection && introspects(oc.Operation) {
		return gqlgen.OneShot(gqlgen.ErrorResponse(ctx, "introspection disabled"))
	}

	vars := make(map[string]any, len(oc.Variables))
	for k, v := range oc.Variables {
		vars[k] = plainValue(v)
	}
	res := e.schema.Exec(ctx, oc.RawQuery, oc.OperationName, vars)

	resp := &gqlgen.Response{Data: res.Data, Extensions: res.Extensions}
	for _, qe := range res.Errors {
		resp.Errors = append(resp.Errors, toGQLError(qe))
	}
	return gqlgen.OneShot(resp)
}

// plainValue rewrites coerced variable values into the shapes a JSON
// decoder produces: numbers become float64.
func plainValue(v any) any {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return f
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

func introspects(op *ast.OperationDefinition) bool {
	if op == nil {
		return false
	}
	return selectsMeta(op.SelectionSet)
}

func selectsMeta(set ast.SelectionSet) bool {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if sel.Name == "__schema" || sel.Name == "__type" {
				return true
			}
		case *ast.InlineFragment:
			if selectsMeta(sel.SelectionSet) {
				return true
			}
		case *ast.FragmentSpread:
			if sel.Definition != nil && selectsMeta(sel.Definition.SelectionSet) {
				return true
			}
		}
	}
	return false
}

func toGQLError(qe *gqlerrors.QueryError) *gqlerror.Error {
	out := &gqlerror.Error{
		Err:        qe.ResolverError,
		Message:    qe.Message,
		Extensions: qe.Extensions,
	}
	for _, loc := range qe.Locations {
		out.Locations = append(out.Locations, gqlerror.Location{Line: loc.Line, Column: loc.Column})
	}
	for _, p := range qe.Path {
		switch p := p.(type) {
		case string:
			out.Path = append(out.Path, ast.PathName(p))
		case int:
			out.Path = append(out.Path, ast.PathIndex(p))
		}
	}
	return out
}

// NewHandler mounts the schema on the gqlgen server with the transports,
// query cache and persisted-query support the storefront clients use.
// Introspection stays off unless introspection is set.
func NewHandler(schema *graphql.Schema, introspection bool) (*handler.Server, error) {
	es, err := NewExecutableSchema(schema)
	if err != nil {
		return nil, err
	}
	srv := handler.New(es)

	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))

	if introspection {
		srv.Use(extension.Introspection{})
	}
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New[string](100),
	})
	return srv, nil
}
