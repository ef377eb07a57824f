package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Widget", "widget"},
		{"Smart Widget", "smart-widget"},
		{"ALL UPPER CASE", "all-upper-case"},
		{"Widget  2000", "widget-2000"},
		{"  padded name  ", "padded-name"},
		{"Hello, World!", "hello-world"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}
