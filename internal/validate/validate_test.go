package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string  `validate:"required,max=5"`
	Email *string `validate:"omitempty,email"`
	Count int     `validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	bad := "not-an-email"

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Name: "acme", Count: 1}, ""},
		{"missing name", sample{Count: 1}, "Name is required"},
		{"long name", sample{Name: "acme-corp", Count: 1}, "Name must be at most 5 characters"},
		{"bad email", sample{Name: "acme", Email: &bad, Count: 1}, "Email must be a valid email address"},
		{"zero count", sample{Name: "acme"}, "Count must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
