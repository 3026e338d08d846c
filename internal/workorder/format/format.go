package format

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NumberGenerator yields a human-facing SPK number for a creation time.
type NumberGenerator func(at time.Time) string

// RandomNumber formats SPK-<year>-<4 digits> with a random suffix in 1000..9999.
func RandomNumber(at time.Time) string {
	return fmt.Sprintf("SPK-%d-%04d", at.Year(), 1000+rand.IntN(9000))
}

// VendorSlug lower-cases the vendor name and collapses whitespace runs into a hyphen.
func VendorSlug(vendorName string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(vendorName)), "-")
}

// VendorNameFromSlug reverses VendorSlug as far as it can: hyphens become spaces.
func VendorNameFromSlug(slug string) string {
	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}

// Links builds public locators from the application base URL.
type Links struct {
	BaseURL string
}

func NewLinks(baseURL string) Links {
	return Links{BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (l Links) Vendor(vendorName string) string {
	return l.BaseURL + "/vendor/" + url.PathEscape(VendorSlug(vendorName))
}

func (l Links) Document(workOrderID snowflake.ID) string {
	return l.BaseURL + "/api/work-orders/" + workOrderID.String() + "/document"
}
