package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a lookup has no match.
	ErrNotFound = errors.New("not found")
	// ErrSimilarityUnsupported means the store cannot run similarity search at all,
	// which is different from a search that found nothing.
	ErrSimilarityUnsupported = errors.New("similarity search unsupported")
	// ErrConfiguration marks failures caused by missing or invalid configuration.
	ErrConfiguration = errors.New("configuration error")
)
