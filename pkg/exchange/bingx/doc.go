// Package bingx implements the Exchange interface for the BingX cryptocurrency
// exchange. It normalizes the venue's three REST namespaces (spot, perpetual
// swap, contract) into the canonical market-data types.
//
// BingX API documentation: https://bingx-api.github.io/docs/
package bingx
