package core

import "errors"

// ErrorCode represents a stable, machine-readable error identifier. Classified
// upstream failures carry the venue's numeric code in ExchangeError.Code;
// these symbolic codes mark error conditions raised locally, before any
// exchange response exists.
type ErrorCode string

const (
	// ErrCodeNoCredentials marks a private call attempted without a complete
	// API key and secret pair.
	ErrCodeNoCredentials ErrorCode = "NO_CREDENTIALS"
	// ErrCodeNoAPIKey marks a private call attempted while every key in the
	// ring is disabled.
	ErrCodeNoAPIKey ErrorCode = "NO_API_KEY"
	// ErrCodeUnsupported marks an operation the venue or market does not offer.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_METHOD"
)

// IsErrorCode checks if the error matches the specified error code.
// It extracts the exchange error and compares its code field against the provided ErrorCode.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
