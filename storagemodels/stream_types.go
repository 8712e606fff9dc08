package storagemodels

import (
	"time"
)

// ScanOptions configures how remote backends page through a table
type ScanOptions struct {
	MaxRetries      int                // Retry attempts for transient errors (default: 3)
	RetryBackoff    time.Duration      // Backoff between retries (default: 100ms)
	PageSize        int32              // Items per page (default: 100)
	ProgressHandler func(ScanProgress) // Optional progress callback
}

// ScanProgress tracks paging progress of a single table scan
type ScanProgress struct {
	Table          string    // Scanned table
	ItemsProcessed int64     // Total items processed
	PagesProcessed int       // Total pages processed
	Retries        int       // Retried page requests
	StartTime      time.Time // When the scan started
}

// ScanOption is a functional option for configuring scans
type ScanOption func(*ScanOptions)

// DefaultScanOptions returns default scan options
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PageSize:     100,
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) ScanOption {
	return func(opts *ScanOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) ScanOption {
	return func(opts *ScanOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithPageSize sets the page size
func WithPageSize(size int32) ScanOption {
	return func(opts *ScanOptions) {
		opts.PageSize = size
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(ScanProgress)) ScanOption {
	return func(opts *ScanOptions) {
		opts.ProgressHandler = handler
	}
}
