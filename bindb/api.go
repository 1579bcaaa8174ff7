package bindb

import (
	"context"
)

// API defines the interface for bindb lookups
type API interface {
	// RawLookup returns the unparsed response body for a bin
	RawLookup(ctx context.Context, bin any) (string, error)

	// Lookup returns the record for a bin, or nil when none was found
	Lookup(ctx context.Context, bin any) (*Record, error)

	// Run executes a previously built BinDBQL query
	Run(ctx context.Context, params ...any) (*Record, error)
}

var _ API = (*Client)(nil)
