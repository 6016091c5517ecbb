package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"freightdesk/internal/core/apperror"
)

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		catName string
		field   string
	}{
		{"ok", " 2661 ", "Kyiv Import", ""},
		{"missing code", "  ", "Kyiv Import", "code"},
		{"dash in code", "26-61", "Kyiv Import", "code"},
		{"missing name", "2661", "", "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog(tt.code, tt.catName)
			c.Code = tt.code
			err := c.Validate(context.Background())
			if tt.field == "" {
				assert.NoError(t, err)
				assert.Equal(t, "2661", c.Code)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			if assert.True(t, ok) {
				assert.Equal(t, apperror.CodeValidation, appErr.Code)
				assert.Equal(t, tt.field, appErr.Details["field"])
			}
		})
	}
}

func TestBaseDocument_TouchAt(t *testing.T) {
	doc := NewBaseDocument(mustTime("2025-03-01T10:00:00Z"))
	assert.Equal(t, 1, doc.Version)

	doc.TouchAt(mustTime("2025-03-02T10:00:00Z"))
	assert.Equal(t, 2, doc.Version)
	assert.True(t, doc.UpdatedAt.After(doc.CreatedAt))
}
