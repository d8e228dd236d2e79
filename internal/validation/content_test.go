package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePostText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"Empty", "", false},
		{"Short", "hello", false},
		{"Exactly Max", strings.Repeat("a", MaxPostTextLen), false},
		{"Too Long", strings.Repeat("a", MaxPostTextLen+1), true},
		{"Multibyte At Max", strings.Repeat("é", MaxPostTextLen), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePostText(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCommentText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"Valid", "nice", false},
		{"Empty", "", true},
		{"Whitespace", " \t\n", true},
		{"Too Long", strings.Repeat("b", MaxCommentTextLen+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommentText(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
