package domain

import "errors"

var (
	// ErrProductNotFound is returned when no product matches an id or item number
	ErrProductNotFound = errors.New("product not found")

	// ErrCategoryNotFound is returned when a category cannot be resolved
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrIndexNotReady is returned when an ordered query needs a composite
	// index the store does not have yet
	ErrIndexNotReady = errors.New("query requires an index that is not provisioned")

	// ErrCatalogUnavailable is returned when the catalog store cannot be reached
	ErrCatalogUnavailable = errors.New("catalog store unavailable")

	// ErrImagesNotFound is returned when an item has no folder or no images in object storage
	ErrImagesNotFound = errors.New("no images in object storage")

	// ErrStorageUnauthorized is returned when object storage rejects our credentials
	ErrStorageUnauthorized = errors.New("object storage access denied")
)
