// Package expr implements the sandboxed applicability/phase-in expression
// evaluator: a fixed grammar of boolean connectives, comparisons, numeric
// arithmetic, and attribute access restricted to an explicitly whitelisted
// context. No stdlib or third-party expression-sandbox library appears
// anywhere in the example corpus for this shape of problem, so the parser
// and evaluator are hand-rolled rather than borrowed.
package expr

import (
	"fmt"

	"github.com/verascope/verascope/internal/domain"
)

// UnknownSymbolError is returned when an expression references an
// identifier outside the whitelisted context. Callers (C6) must treat this
// as "not applicable" with an explicit reason, never as an evaluation
// crash.
type UnknownSymbolError struct {
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("expr: unknown symbol %q", e.Symbol)
}

// Context is the whitelisted bag of attribute values an expression may
// reference, keyed by dotted name (e.g. "company.employees").
type Context map[string]any

// WhitelistedIdentifiers is the complete set of dotted names a
// company-profile expression may reference. The bundle loader (C5) uses
// this same set to reject non-whitelisted applicability_expr/phase_in_rule
// strings at load time, before any expression is ever evaluated.
var WhitelistedIdentifiers = map[string]bool{
	"company.employees":            true,
	"company.turnover":             true,
	"company.listed_status":        true,
	"company.reporting_year":       true,
	"company.reporting_year_start": true,
	"company.reporting_year_end":   true,
	"company.jurisdictions":        true,
}

// CompanyContext builds the whitelisted evaluation context for a company
// profile. These seven keys are the entire attribute surface §4.7 permits;
// nothing else is ever added.
func CompanyContext(p *domain.CompanyProfile) Context {
	return Context{
		"company.employees":            float64(p.Employees),
		"company.turnover":             p.TurnoverEUR,
		"company.listed_status":        p.ListedStatus,
		"company.reporting_year":       float64(p.ReportingYear),
		"company.reporting_year_start": float64(p.ReportingYearStart),
		"company.reporting_year_end":   float64(p.ReportingYearEnd),
		"company.jurisdictions":        append([]string(nil), p.Jurisdictions...),
	}
}

// Evaluate parses and evaluates expr against ctx, requiring a boolean
// result. An empty expr is always applicable (true, nil) per §4.6/§4.7 —
// bundles may omit applicability_expr/phase_in_rule entirely.
func Evaluate(expression string, ctx Context) (bool, error) {
	if expression == "" {
		return true, nil
	}

	tree, err := parse(expression)
	if err != nil {
		return false, fmt.Errorf("expr: parse %q: %w", expression, err)
	}

	v, err := tree.eval(ctx)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expr: %q evaluated to non-boolean %T", expression, v)
	}
	return b, nil
}
