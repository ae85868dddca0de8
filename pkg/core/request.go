package core

import "maps"

// Params holds request parameters keyed by exchange field name.
type Params map[string]any

// AccessLevel distinguishes unauthenticated from credentialed API calls.
type AccessLevel int

const (
	// AccessPublic marks a request that needs no credentials.
	AccessPublic AccessLevel = iota
	// AccessPrivate marks a request that must carry API credentials.
	AccessPrivate
)

// String returns the string representation of the access level.
func (a AccessLevel) String() string {
	return [...]string{"public", "private"}[a]
}

// Request describes one outbound exchange call. The venue protocol builds it,
// the signer finalizes URL and headers, and the transport consumes it once.
// It is never persisted or reused across calls.
type Request struct {
	Method string `json:"method"`
	// Path is the endpoint path relative to the namespace base URL.
	Path string `json:"path"`
	// URL is the fully composed request URL, set by the signer.
	URL string `json:"url,omitempty"`
	// Group names the API namespace this request belongs to. The signer
	// resolves the base URL from it and the rate limiter buckets by it.
	Group   string            `json:"group,omitempty"`
	Query   Params            `json:"query,omitempty"`
	Body    any               `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Access  AccessLevel       `json:"access"`
	Weight  int               `json:"weight"`
}

// NewRequest creates a public Request with the given method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(Params),
		Headers: make(map[string]string),
		Weight:  1,
	}
}

// SetQuery sets a single query parameter and returns the request for chaining.
func (r *Request) SetQuery(key string, value any) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	r.Query[key] = value
	return r
}

// SetQueryParams merges the given parameters into the query set.
func (r *Request) SetQueryParams(params Params) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	maps.Copy(r.Query, params)
	return r
}

// SetBody sets the request body and returns the request for chaining.
func (r *Request) SetBody(body any) *Request {
	r.Body = body
	return r
}

// SetHeader sets a single header and returns the request for chaining.
func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetGroup sets the API namespace group and returns the request for chaining.
func (r *Request) SetGroup(group string) *Request {
	r.Group = group
	return r
}

// SetAccess sets the access level and returns the request for chaining.
func (r *Request) SetAccess(access AccessLevel) *Request {
	r.Access = access
	return r
}

// SetWeight sets the rate limit weight and returns the request for chaining.
func (r *Request) SetWeight(weight int) *Request {
	r.Weight = weight
	return r
}
