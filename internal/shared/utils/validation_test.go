package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVirtualPath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"index.jsx", true},
		{"src/components/App.jsx", true},
		{"./styles.css", true},
		{"/App.jsx", true},
		{"@scope/pkg.js", true},
		{"", false},
		{"../escape.jsx", false},
		{"src/../../escape.jsx", false},
		{".", false},
		{"bad\x00name.js", false},
		{"quote\".js", false},
		{strings.Repeat("a", MaxPathLength+1), false},
	}

	for _, tt := range tests {
		err := ValidateVirtualPath(tt.path)
		if tt.valid {
			assert.NoError(t, err, tt.path)
		} else {
			assert.Error(t, err, tt.path)
		}
	}
}

func TestValidateFiles(t *testing.T) {
	assert.NoError(t, ValidateFiles(map[string]string{"index.jsx": "x"}))
	assert.Error(t, ValidateFiles(nil))
	assert.Error(t, ValidateFiles(map[string]string{"../x.js": ""}))
	assert.Error(t, ValidateFiles(map[string]string{"big.js": strings.Repeat("x", MaxFileSize+1)}))

	half := strings.Repeat("x", MaxFileSize)
	err := ValidateFiles(map[string]string{"a.js": half, "b.js": half, "c.js": "x"})
	assert.ErrorContains(t, err, "maximum")
}

func TestValidateMessage(t *testing.T) {
	assert.Error(t, ValidateMessage("bad\x00byte"))

	assert.NoError(t, ValidateMessage("Error: boom"))
	assert.Error(t, ValidateMessage(""))
	assert.Error(t, ValidateMessage(strings.Repeat("x", MaxMessageSize+1)))
}
