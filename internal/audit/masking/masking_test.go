package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "o****@acme.test", MaskEmail("ops@acme.test"))
	assert.Equal(t, "****", MaskEmail("abc"))
}

func TestMaskContacts(t *testing.T) {
	got := MaskContacts(map[string]any{
		"vendor_email": "ops@acme.test",
		"vendor_phone": "+62 812 3456 7890",
		"spk_number":   "SPK-2026-1234",
		" ":            "dropped",
	})
	assert.Equal(t, "o****@acme.test", got["vendor_email"])
	assert.Equal(t, "****7890", got["vendor_phone"])
	assert.Equal(t, "SPK-2026-1234", got["spk_number"])
	assert.Len(t, got, 3)
}
