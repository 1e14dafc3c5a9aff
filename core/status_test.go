package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStatus_String(t *testing.T) {
	assert.Equal(t, "uploaded", StatusUploaded.String())
	assert.Equal(t, "processing", StatusProcessing.String())
	assert.Equal(t, "processed", StatusProcessed.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Contains(t, DocumentStatus(42).String(), "unknown")
}

func TestParseDocumentStatus(t *testing.T) {
	for _, name := range []string{"uploaded", "processing", "processed", "error"} {
		status, err := ParseDocumentStatus(name)
		require.NoError(t, err)
		assert.Equal(t, name, status.String())
	}

	_, err := ParseDocumentStatus("bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDocumentStatus_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(StatusProcessed)
	require.NoError(t, err)
	assert.Equal(t, `"processed"`, string(data))

	var status DocumentStatus
	require.NoError(t, json.Unmarshal(data, &status))
	assert.Equal(t, StatusProcessed, status)
}

func TestDocumentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DocumentStatus
		to   DocumentStatus
		want bool
	}{
		{"uploaded begins processing", StatusUploaded, StatusProcessing, true},
		{"processed can be reprocessed", StatusProcessed, StatusProcessing, true},
		{"error can be retriggered", StatusError, StatusProcessing, true},
		{"processing cannot be re-entered", StatusProcessing, StatusProcessing, false},
		{"processing succeeds", StatusProcessing, StatusProcessed, true},
		{"processing fails", StatusProcessing, StatusError, true},
		{"uploaded cannot jump to processed", StatusUploaded, StatusProcessed, false},
		{"uploaded cannot jump to error", StatusUploaded, StatusError, false},
		{"nothing transitions to uploaded", StatusProcessed, StatusUploaded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusUploaded, StatusProcessing))
	assert.ErrorIs(t, ValidateTransition(StatusProcessing, StatusProcessing), ErrInvalidTransition)
}
