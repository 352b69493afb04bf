package domain

// CompanyProfile is the whitelisted context the applicability evaluator (C7)
// and the regulatory compiler (C6) are allowed to read. Field names here are
// exactly the dotted names an applicability/phase-in expression may reference
// under the "company." root.
type CompanyProfile struct {
	CompanyID             string   // unique within tenant
	Tenant                string   // owning tenant
	Name                  string   // display name
	Employees             int64    // company.employees
	TurnoverEUR           float64  // company.turnover
	ListedStatus          bool     // company.listed_status
	ReportingYear         int      // company.reporting_year
	ReportingYearStart    int64    // company.reporting_year_start, unix ms
	ReportingYearEnd      int64    // company.reporting_year_end, unix ms
	Jurisdictions         []string // company.jurisdictions
	SelectedBundleRefs    []BundleRef // regimes/jurisdictions explicitly opted into for compilation
}
