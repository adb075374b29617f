package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantText string
	}{
		{"dataset", NewDatasetError("load failed", fs.ErrNotExist), ErrTypeDataset, "[DATASET] load failed: file does not exist"},
		{"parsing", NewParsingError("bad row", nil), ErrTypeParsing, "[PARSING] bad row"},
		{"storage", NewStorageError("insert", nil), ErrTypeStorage, "[STORAGE] insert"},
		{"validation", NewAppValidationError("bad", nil), ErrTypeValidation, "[VALIDATION] bad"},
		{"not found", NewNotFoundError("query"), ErrTypeNotFound, "[NOT_FOUND] query not found"},
		{"unsupported", NewUnsupportedError("pdf", nil), ErrTypeUnsupported, "[UNSUPPORTED] pdf"},
		{"config", NewConfigError("port", nil), ErrTypeConfig, "[CONFIG] port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantText, tt.err.Error())
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewDatasetError("load failed", fs.ErrNotExist)
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))

	var appErr *AppError
	require.True(t, stderrors.As(error(err), &appErr))
	assert.Equal(t, ErrTypeDataset, appErr.Type)
}

func TestAppErrorWithContext(t *testing.T) {
	err := (&AppError{Type: ErrTypeParsing, Message: "x"}).
		WithContext("line", 3).
		WithContext("field", "Date")

	assert.Equal(t, 3, err.Context["line"])
	assert.Equal(t, "Date", fieldOf(err))
	assert.Equal(t, "", fieldOf(NewParsingError("y", nil)))
}
