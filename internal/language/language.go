// Package language wraps the gqlparser AST behind the names the cache's
// executor consumes, so the rest of the module never imports gqlparser
// directly.
package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses a GraphQL executable document: its operations and any
// fragment definitions they spread.
func ParseQuery(source string) (*QueryDocument, error) {
	return parser.ParseQuery(&ast.Source{Input: source})
}
