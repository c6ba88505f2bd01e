package domain

import "errors"

var (
	// ErrInvalidFilterSyntax signals a malformed nested filter payload.
	ErrInvalidFilterSyntax = errors.New("invalid filter syntax")
	// ErrLocationNotFound signals that the geocoding resolver found no match.
	ErrLocationNotFound = errors.New("location not found")
	// ErrCompanyNotFound signals a missing company record.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrDataSource signals a failed dataset read.
	ErrDataSource = errors.New("data source error")
	// ErrCacheMiss signals an absent cache entry.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable signals a failing cache backend. Never surfaced to
	// callers; the engine falls back to direct computation.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
