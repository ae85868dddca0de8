package exchange

import (
	"time"

	"nakula/pkg/core"
)

// Option configures a single exchange call.
type Option func(*Options)

// Options holds the per-call settings shared by exchange operations.
type Options struct {
	Limit      int
	Since      time.Time
	MarketType core.MarketType
	// MarketTypeSet distinguishes an explicit spot selection from the zero value.
	MarketTypeSet bool
	// Params carries venue-specific extra parameters passed through verbatim.
	Params core.Params
}

// WithLimit caps the number of records returned.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

// WithSince sets the earliest timestamp of interest.
func WithSince(since time.Time) Option {
	return func(o *Options) {
		o.Since = since
	}
}

// WithMarketType overrides the configured market type for this call.
func WithMarketType(mt core.MarketType) Option {
	return func(o *Options) {
		o.MarketType = mt
		o.MarketTypeSet = true
	}
}

// WithParams merges venue-specific extra parameters into the call.
func WithParams(params core.Params) Option {
	return func(o *Options) {
		if o.Params == nil {
			o.Params = make(core.Params, len(params))
		}
		for k, v := range params {
			o.Params[k] = v
		}
	}
}

// ApplyOptions folds the given options into a fresh Options value.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ResolveMarketType returns the market type for a call: the explicit per-call
// override when present, otherwise the configured default.
func (o *Options) ResolveMarketType(fallback core.MarketType) core.MarketType {
	if o.MarketTypeSet {
		return o.MarketType
	}
	return fallback
}
