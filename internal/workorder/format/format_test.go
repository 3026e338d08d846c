package format

import (
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestRandomNumberShape(t *testing.T) {
	pattern := regexp.MustCompile(`^SPK-2026-[1-9][0-9]{3}$`)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		assert.Regexp(t, pattern, RandomNumber(at))
	}
}

func TestVendorSlug(t *testing.T) {
	cases := map[string]string{
		"Acme Supplies":      "acme-supplies",
		"  PT  Maju\tJaya  ": "pt-maju-jaya",
		"CV. Sinar Abadi":    "cv.-sinar-abadi",
		"single":             "single",
	}
	for in, want := range cases {
		assert.Equal(t, want, VendorSlug(in), in)
	}
}

func TestVendorNameFromSlug(t *testing.T) {
	assert.Equal(t, "acme supplies", VendorNameFromSlug("acme-supplies"))
}

func TestLinks(t *testing.T) {
	links := NewLinks("https://spk.example.com/")

	assert.Equal(t, "https://spk.example.com/vendor/acme-supplies", links.Vendor("Acme Supplies"))
	assert.Equal(t, "https://spk.example.com/vendor/caf%C3%A9-bali", links.Vendor("Café Bali"))
	assert.Equal(t, "https://spk.example.com/api/work-orders/42/document", links.Document(snowflake.ID(42)))
}
