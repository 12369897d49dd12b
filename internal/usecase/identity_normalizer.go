package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
	"golang.org/x/text/unicode/norm"
)

// rightSingleQuote replaces ASCII apostrophes in names. The dataset stores
// names this way, and a bare ' would terminate the quoted value in $where.
const rightSingleQuote = "’"

// Compiled patterns for identity normalization
var (
	// Matches "(...)" with any surrounding spaces, e.g. "Joe's (Carmine St)"
	parentheticalPattern = regexp.MustCompile(` *\([^)]*\) *`)

	nonDigitPattern = regexp.MustCompile(`[^0-9]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// siteVariants maps a site tag to its address parsing variant.
// Sites read through JSON-LD publish E.164-ish phones with a leading country code.
var siteVariants = map[string]domain.SiteVariant{
	"yelp":       {Name: "yelp", StripCountryCode: true},
	"menupages":  {Name: "menupages", StripCountryCode: true},
	"opentable":  {Name: "opentable", StripCountryCode: true},
	"grubhub":    {Name: "grubhub", StripCountryCode: true},
	"zagat":      {Name: "zagat", StripCountryCode: false},
	"foursquare": {Name: "foursquare", StripCountryCode: false},
}

// VariantForSite returns the parsing variant for a site tag
func VariantForSite(site string) (domain.SiteVariant, error) {
	variant, ok := siteVariants[strings.ToLower(strings.TrimSpace(site))]
	if !ok {
		return domain.SiteVariant{}, fmt.Errorf("%w: %w: %q", domain.ErrExtraction, domain.ErrUnsupportedSite, site)
	}
	return variant, nil
}

// IdentityNormalizer turns scraped restaurant text into a query-ready identity
type IdentityNormalizer struct {
	log *logger.Logger
}

// NewIdentityNormalizer creates a new identity normalizer
func NewIdentityNormalizer(log *logger.Logger) *IdentityNormalizer {
	if log == nil {
		log = logger.Discard()
	}
	return &IdentityNormalizer{log: log.With("component", "normalizer")}
}

// Normalize builds a RestaurantIdentity from raw scraped text.
// Any required field that ends up empty is an extraction failure.
func (n *IdentityNormalizer) Normalize(raw domain.RawIdentity) (*domain.RestaurantIdentity, error) {
	variant, err := VariantForSite(raw.Site)
	if err != nil {
		return nil, err
	}

	building, street, err := SplitAddress(raw.Address)
	if err != nil {
		return nil, err
	}

	zipcode, err := NormalizeZipcode(raw.Zipcode)
	if err != nil {
		return nil, err
	}

	identity := &domain.RestaurantIdentity{
		Name:           NormalizeName(raw.Name),
		BuildingNumber: building,
		Street:         street,
		Zipcode:        zipcode,
		Phone:          NormalizePhone(raw.Phone, variant.StripCountryCode),
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"name", identity.Name},
		{"buildingNumber", identity.BuildingNumber},
		{"street", identity.Street},
		{"phone", identity.Phone},
	} {
		if field.value == "" {
			return nil, fmt.Errorf("%w: %s field did not yield any value", domain.ErrExtraction, field.name)
		}
	}

	n.log.Debug("normalized identity",
		"site", variant.Name,
		"name", identity.Name,
		"building", identity.BuildingNumber,
		"street", identity.Street,
		"zipcode", identity.Zipcode,
		"phone", identity.Phone)

	return identity, nil
}

// SplitAddress splits a street address into building number and street name.
// Everything before the first space is the building number; the street is the
// rest minus parentheticals and its last word (the street type, e.g. "Ave").
func SplitAddress(address string) (string, string, error) {
	address = strings.TrimSpace(address)

	firstSpace := strings.Index(address, " ")
	if firstSpace == -1 {
		return "", "", fmt.Errorf("%w: no spaces in address %q", domain.ErrExtraction, address)
	}

	return address[:firstSpace], NormalizeStreet(address[firstSpace:]), nil
}

// NormalizeStreet reduces a street to the part the dataset matches on.
// Numbered streets collapse to their digits, so "3rd Ave" becomes "3".
func NormalizeStreet(street string) string {
	street = strings.TrimSpace(stripParentheticals(street))

	if lastSpace := strings.LastIndex(street, " "); lastSpace != -1 {
		street = street[:lastSpace]
	}

	if digitPattern.MatchString(street) {
		street = nonDigitPattern.ReplaceAllString(street, "")
	}

	return strings.TrimSpace(street)
}

// NormalizeName lowercases a restaurant name and strips characters that break
// or skew dataset queries. It is idempotent.
func NormalizeName(name string) string {
	name = norm.NFC.String(strings.ToLower(strings.TrimSpace(name)))
	name = strings.ReplaceAll(name, "'", rightSingleQuote)
	name = stripParentheticals(name)
	name = strings.ReplaceAll(name, "&", "")
	name = strings.ReplaceAll(name, "#", "")

	// OpenTable appends " - Neighborhood" to names
	if dash := strings.Index(name, "-"); dash != -1 {
		name = name[:dash]
	}

	return strings.TrimSpace(name)
}

// NormalizePhone keeps digits only, optionally dropping a leading country code
func NormalizePhone(phone string, stripCountryCode bool) string {
	phone = nonDigitPattern.ReplaceAllString(phone, "")
	if stripCountryCode && strings.HasPrefix(phone, "1") {
		phone = phone[1:]
	}
	return phone
}

// NormalizeZipcode returns the five-digit zipcode, or "" when none was scraped.
// Text such as "Brooklyn, NY 11237" or "10012-3456" is accepted.
func NormalizeZipcode(zipcode string) (string, error) {
	if strings.TrimSpace(zipcode) == "" {
		return "", nil
	}

	digits := nonDigitPattern.ReplaceAllString(zipcode, "")
	if len(digits) < 5 {
		return "", fmt.Errorf("%w: zipcode field did not yield any value from %q", domain.ErrExtraction, zipcode)
	}
	return digits[:5], nil
}

// stripParentheticals removes "(...)" together with the spaces around it.
// The neighbours are joined, so the result matches how dataset names were keyed.
func stripParentheticals(s string) string {
	return parentheticalPattern.ReplaceAllString(s, "")
}
