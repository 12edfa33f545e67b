package domain

import "errors"

// ============================================================================
// Catalog Errors
// ============================================================================

var (
	ErrModelNotFound   = errors.New("model not found")
	ErrVersionNotFound = errors.New("model version not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrRunNotFound     = errors.New("scrape run not found")
)

// ============================================================================
// Ingestion Errors
// ============================================================================

// Per-entry errors: reported and skipped, never fatal to the run.
var (
	ErrMalformedEntry = errors.New("entry could not be decoded")
	ErrMissingID      = errors.New("entry has no external id")
)

// ============================================================================
// Upstream Errors
// ============================================================================

var (
	ErrUpstreamStatus   = errors.New("unexpected upstream status")
	ErrUpstreamResponse = errors.New("upstream response could not be decoded")
	ErrInvalidAssetType = errors.New("asset type must be models or images")
)

// ============================================================================
// Enrichment Errors
// ============================================================================

var (
	ErrHashNotFound         = errors.New("no model version matches file hash")
	ErrUnsupportedExtension = errors.New("file extension is not allow-listed")
	ErrNotAFile             = errors.New("path is not a regular file")
)
