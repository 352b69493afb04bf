package domain

// Document is an immutable, content-addressed source file.
// Corresponds to the documents table.
type Document struct {
	DocHash      string // PRIMARY KEY, SHA-256(bytes) hex
	SizeBytes    int64  // size of the original, uncompressed bytes
	ContentType  string // "application/pdf" | "text/plain" | "text/html"
	ParserVersion string // version tag of the last successful extraction, "" if never extracted
	CreatedAt    int64  // record creation timestamp (ms)
}

// CompanyDocumentLink grants a company retrieval access to a document.
// Corresponds to the company_document_links table.
type CompanyDocumentLink struct {
	Tenant    string // tenant identifier
	CompanyID string // FK to companies
	DocHash   string // FK to documents
	Title     string // human-supplied title at upload time
	CreatedAt int64  // record creation timestamp (ms)
}
