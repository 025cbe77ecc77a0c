package telephony

import (
	"context"

	"call-analytics/internal/calls"
)

// CallSource is the provider-agnostic interface for the external call API.
//
// Rules:
// - No raw HTTP calls to the source outside this package.
// - Tokens are per-tenant secrets; they are passed in, never stored here.
// - Payload normalization happens in internal/calls, not in adapters.
type CallSource interface {
	Name() string

	// FetchCalls returns the tenant's full current call list. The source does
	// not support server-side incremental filtering; limit <= 0 means no limit.
	FetchCalls(ctx context.Context, bearerToken string, limit int) ([]calls.SourceCall, error)
}
