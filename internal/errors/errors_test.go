package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityFatal, false},
		{ErrCodeMetadataFailure, CategoryStorage, SeverityError, false},
		{ErrCodeNetworkTimeout, CategoryNetwork, SeverityError, true},
		{ErrCodeRateLimited, CategoryNetwork, SeverityError, true},
		{ErrCodeInvalidInput, CategoryValidation, SeverityError, false},
		{ErrCodeRetrievalFailed, CategoryPipeline, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestError_FormatAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := New(ErrCodeConnector, "pubmed search failed", cause)

	assert.Equal(t, "[ERR_302_CONNECTOR_FAILED] pubmed search failed", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := RetrievalError("embed query", nil)
	assert.ErrorIs(t, err, New(ErrCodeRetrievalFailed, "other message", nil))
	assert.NotErrorIs(t, err, New(ErrCodeSynthesisFailed, "other", nil))
}

func TestError_WithDetail(t *testing.T) {
	err := ConnectorError("arxiv", "timeout", nil)
	assert.Equal(t, "arxiv", err.Details["source"])

	err.WithDetail("status", "503")
	assert.Equal(t, "503", err.Details["status"])
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))

	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeMetadataFailure, cause)
	require.NotNil(t, err)
	assert.Equal(t, "disk full", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestIsRetryableAndGetCode(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.True(t, IsRetryable(RateLimitError("pubmed")))

	assert.Equal(t, ErrCodeRateLimited, GetCode(RateLimitError("pubmed")))
	assert.Empty(t, GetCode(stderrors.New("plain")))
	assert.Equal(t, CategoryNetwork, GetCategory(RateLimitError("pubmed")))
}
