package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wcpa/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeSignature, http.StatusBadRequest},
		{shared.CodeDuplicate, http.StatusConflict},
		{shared.CodeGateway, http.StatusBadRequest},
		{shared.CodeLedgerWrite, http.StatusInternalServerError},
		{"NOT_FOUND", http.StatusNotFound},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.code))
		})
	}
}
