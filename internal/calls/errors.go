package calls

import "errors"

// Pipeline error taxonomy. The HTTP boundary maps these onto status codes;
// nothing below the boundary should inspect response writers.
var (
	// ErrNoCredential means the tenant has no source API token configured.
	// Distinct from an auth failure at the source itself.
	ErrNoCredential = errors.New("calls: no source credential configured for tenant")

	// ErrUpstreamAuth means the source rejected the tenant's token.
	ErrUpstreamAuth = errors.New("calls: source rejected credential")

	// ErrUpstreamUnavailable covers network failures and source 5xx responses.
	ErrUpstreamUnavailable = errors.New("calls: source unavailable")

	// ErrIngestion is a datastore write failure during an ingestion batch.
	ErrIngestion = errors.New("calls: ingestion write failed")

	// ErrAnalytics is a datastore read failure during report computation.
	ErrAnalytics = errors.New("calls: analytics read failed")

	// ErrIngestRunning means another ingestion run holds the tenant lease.
	ErrIngestRunning = errors.New("calls: ingestion already running for tenant")
)
