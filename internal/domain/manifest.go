package domain

// RunManifest is the reproducible, byte-stable record of everything needed
// to re-derive a completed run's outputs. Written once at run completion.
type RunManifest struct {
	RunID                 string
	RunHash               string
	DocumentHashes        []string
	BundleRefs            []BundleRef
	PlanHash              string
	CompilerMode          string
	RetrievalParams       RetrievalParams
	ProviderID            string
	ProviderModel         string
	PromptTemplateVersion string
	CodeVersion           string
	ReportTemplateVersion string
	CreatedAt             int64
}

// RunCacheEntry is the write-once cache row keyed by run_hash, pointing at
// the stored artifacts of the run that first produced that fingerprint.
type RunCacheEntry struct {
	RunHash        string
	ManifestRef    string
	AssessmentsRef string
	CoverageRef    string
	CreatedAt      int64
}
