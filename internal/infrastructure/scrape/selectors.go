package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gradecard/backend/internal/domain"
)

// selectorAdapter reads sites without structured data through CSS selectors
type selectorAdapter struct {
	site    string
	name    string
	address string
	zipcode string // empty when the site does not show one
	phone   string
}

func (a *selectorAdapter) Site() string { return a.site }

func (a *selectorAdapter) RestaurantKey(string) (string, bool) { return "", false }

func (a *selectorAdapter) Extract(doc *goquery.Document) (domain.RawIdentity, error) {
	raw := domain.RawIdentity{}

	for _, field := range []struct {
		label    string
		selector string
		dst      *string
	}{
		{"name", a.name, &raw.Name},
		{"address", a.address, &raw.Address},
		{"zipcode", a.zipcode, &raw.Zipcode},
		{"phone", a.phone, &raw.Phone},
	} {
		if field.selector == "" {
			continue
		}
		sel := doc.Find(field.selector).First()
		if sel.Length() == 0 {
			return domain.RawIdentity{}, fmt.Errorf("%w: %s selector did not return an element on %s page",
				domain.ErrExtraction, field.label, a.site)
		}
		*field.dst = strings.TrimSpace(sel.Text())
	}

	return raw, nil
}

func zagatAdapter() *selectorAdapter {
	const place = "#sidebar > div.widget.place-resume > div.place--address > p"
	return &selectorAdapter{
		site:    "zagat",
		name:    "#main-content-title",
		address: place + " > span:nth-child(1)",
		zipcode: place + " > span:nth-child(6)",
		phone:   place + " > span.hidden-mobile",
	}
}

func foursquareAdapter() *selectorAdapter {
	const header = "div.venueHeader > div.primaryInfo"
	return &selectorAdapter{
		site:    "foursquare",
		name:    header + " > div.venueNameSection > h1",
		address: header + " > div.address > div > span:nth-child(1)",
		zipcode: header + " > div.address > div > span:nth-child(4)",
		phone:   "div.venueAttributes div.phoneAttr > div.linkAttrValue > span",
	}
}
