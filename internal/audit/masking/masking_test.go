package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("123"))
	assert.Equal(t, "****7890", MaskSecret("OP-1234567890"))
}

func TestMaskFieldsOnlyTouchesSensitiveKeys(t *testing.T) {
	out := MaskFields(map[string]any{
		"reference_number": "YAPE-000111",
		"amount":           "50.00",
		"nested":           map[string]any{"dni": "45678912"},
	}, SensitiveKeys...)

	assert.Equal(t, "****0111", out["reference_number"])
	assert.Equal(t, "50.00", out["amount"])
	assert.Equal(t, "****8912", out["nested"].(map[string]any)["dni"])
}
