package expr

import (
	"errors"
	"testing"

	"github.com/verascope/verascope/internal/domain"
)

func testContext() Context {
	return CompanyContext(&domain.CompanyProfile{
		Employees:          500,
		TurnoverEUR:        120_000_000,
		ListedStatus:       true,
		ReportingYear:      2025,
		ReportingYearStart: 1735689600000,
		ReportingYearEnd:   1767225599000,
		Jurisdictions:      []string{"DE", "FR"},
	})
}

func TestEvaluate_EmptyExpressionIsAlwaysApplicable(t *testing.T) {
	got, err := Evaluate("", testContext())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Error("Evaluate(\"\") = false, want true")
	}
}

func TestEvaluate_NumericComparisonAndConnectives(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{"company.employees > 250", true},
		{"company.employees > 250 && company.listed_status", true},
		{"company.employees > 1000", false},
		{"company.employees > 1000 || company.listed_status", true},
		{"!(company.employees > 1000)", true},
		{"company.turnover >= 100000000 && company.reporting_year == 2025", true},
	}
	ctx := testContext()
	for _, tc := range cases {
		got, err := Evaluate(tc.expr, ctx)
		if err != nil {
			t.Fatalf("Evaluate(%q) error = %v", tc.expr, err)
		}
		if got != tc.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluate_MembershipAgainstJurisdictionsList(t *testing.T) {
	ctx := testContext()
	got, err := Evaluate(`"DE" in company.jurisdictions`, ctx)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Error("Evaluate() = false, want true for DE in [DE, FR]")
	}

	got, err = Evaluate(`"IT" in company.jurisdictions`, ctx)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got {
		t.Error("Evaluate() = true, want false for IT not in [DE, FR]")
	}
}

func TestEvaluate_UnknownSymbolReturnsTypedError(t *testing.T) {
	_, err := Evaluate("company.headcount > 10", testContext())
	if err == nil {
		t.Fatal("Evaluate() = nil error, want UnknownSymbolError")
	}
	var unknown *UnknownSymbolError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownSymbolError", err)
	}
	if unknown.Symbol != "company.headcount" {
		t.Errorf("Symbol = %q, want company.headcount", unknown.Symbol)
	}
}

func TestEvaluate_ArithmeticExpression(t *testing.T) {
	got, err := Evaluate("company.employees * 2 > 900", testContext())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Error("Evaluate() = false, want true (500*2 > 900)")
	}
}

func TestEvaluate_NonBooleanResultIsAnError(t *testing.T) {
	_, err := Evaluate("company.employees + 1", testContext())
	if err == nil {
		t.Fatal("Evaluate() = nil error, want error for non-boolean result")
	}
}
