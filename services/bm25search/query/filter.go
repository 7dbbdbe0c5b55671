package query

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
)

// celEnv is shared across every compiled expression: it declares the one
// variable a filter or order-by expression can reference, "row", bound to
// the candidate document's typed columns. Building it once avoids paying
// CEL's environment-construction cost per query.
var celEnv = func() *cel.Env {
	env, err := cel.NewEnv(cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		panic(fmt.Sprintf("query: failed to construct CEL environment: %v", err))
	}
	return env
}()

// Filter is a compiled predicate over row columns, e.g.
// `row.year >= 1970 && row.popularity > 8`.
type Filter struct {
	program cel.Program
	source  string
}

// CompileFilter compiles a CEL boolean expression. An empty expr compiles
// to a Filter that matches everything.
func CompileFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}
	ast, iss := celEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("query: invalid filter %q: %w", expr, iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("query: filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	prg, err := celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("query: compiling filter %q: %w", expr, err)
	}
	return &Filter{program: prg, source: expr}, nil
}

// Matches evaluates the filter against a candidate row. A nil Filter
// (no predicate given) always matches.
func (f *Filter) Matches(row docstore.Row) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, _, err := f.program.Eval(map[string]any{"row": mapOrEmpty(row)})
	if err != nil {
		return false, fmt.Errorf("query: evaluating filter %q: %w", f.source, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("query: filter %q produced non-bool result", f.source)
	}
	return matched, nil
}

// OrderBy is a compiled numeric expression used to order candidates
// instead of the default score-descending rule.
type OrderBy struct {
	program cel.Program
	source  string
}

// CompileOrderBy compiles a CEL numeric expression. An empty expr yields
// a nil *OrderBy, signalling "use BM25 score."
func CompileOrderBy(expr string) (*OrderBy, error) {
	if expr == "" {
		return nil, nil
	}
	ast, iss := celEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("query: invalid order-by %q: %w", expr, iss.Err())
	}
	prg, err := celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("query: compiling order-by %q: %w", expr, err)
	}
	return &OrderBy{program: prg, source: expr}, nil
}

// Value evaluates the order-by expression against a row, coercing the
// result to float64.
func (o *OrderBy) Value(row docstore.Row) (float64, error) {
	out, _, err := o.program.Eval(map[string]any{"row": mapOrEmpty(row)})
	if err != nil {
		return 0, fmt.Errorf("query: evaluating order-by %q: %w", o.source, err)
	}
	switch v := out.Value().(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case uint64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("query: order-by %q produced non-numeric result %T", o.source, v)
	}
}

func mapOrEmpty(row docstore.Row) docstore.Row {
	if row == nil {
		return docstore.Row{}
	}
	return row
}
