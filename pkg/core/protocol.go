package core

import (
	"context"

	"resty.dev/v3"
)

// RateLimitConfig defines rate limiting parameters for an exchange protocol.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum general requests per second.
	RequestsPerSecond int `json:"requests_per_second"`
	// Burst allows temporary exceeding of rate limits.
	Burst int `json:"burst"`
}

// Protocol defines the interface for exchange-specific protocol implementations.
// Each venue implements request building, URL signing, response parsing, and
// error classification for its API.
type Protocol interface {
	// Name returns the exchange identifier (e.g. "bingx").
	Name() string

	// BuildRequest constructs an HTTP request for the specified operation.
	// The params map contains operation-specific parameters.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// Sign finalizes the request: it composes the full URL from the endpoint
	// table, applies the deterministic query encoding, and attaches
	// credentials for private access. Credentials may be nil for public
	// requests.
	Sign(req *Request, creds *Credentials) error

	// ParseResponse deserializes the HTTP response and normalizes it to
	// canonical types. Error envelopes are classified into typed errors.
	ParseResponse(op Operation, resp *resty.Response) (any, error)

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation

	// RateLimits returns the rate limiting configuration for this exchange.
	RateLimits() RateLimitConfig
}
