// Package errors provides structured error handling for Scholaris.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (index, metadata)
//   - 3XX: Network errors (connectors, rate limits)
//   - 4XX: Validation errors
//   - 5XX: Pipeline errors (embedding, retrieval, synthesis)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates index and metadata persistence errors.
	CategoryStorage Category = "STORAGE"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryPipeline indicates query-pipeline stage errors.
	CategoryPipeline Category = "PIPELINE"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeIndexCorrupt    = "ERR_201_INDEX_CORRUPT"
	ErrCodeChunkNotFound   = "ERR_202_CHUNK_NOT_FOUND"
	ErrCodeMetadataFailure = "ERR_203_METADATA_FAILURE"

	// Network errors (300-399)
	ErrCodeNetworkTimeout = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeConnector      = "ERR_302_CONNECTOR_FAILED"
	ErrCodeRateLimited    = "ERR_303_RATE_LIMITED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty        = "ERR_402_QUERY_EMPTY"
	ErrCodeDimensionMismatch = "ERR_403_DIMENSION_MISMATCH"
	ErrCodeMalformedPayload  = "ERR_404_MALFORMED_PAYLOAD"

	// Pipeline errors (500-599)
	ErrCodeEmbeddingFailed = "ERR_501_EMBEDDING_FAILED"
	ErrCodeRetrievalFailed = "ERR_502_RETRIEVAL_FAILED"
	ErrCodeSynthesisFailed = "ERR_503_SYNTHESIS_FAILED"
	ErrCodeChunkingFailed  = "ERR_504_CHUNKING_FAILED"
	ErrCodeInternal        = "ERR_505_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryPipeline
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryPipeline
	}
}

// severityFromCode derives severity from the error code.
// Config errors are fatal at startup; everything else defaults to ERROR.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code
// may be retried. Only transient network conditions qualify.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeConnector, ErrCodeRateLimited:
		return true
	default:
		return false
	}
}
