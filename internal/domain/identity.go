package domain

// RawIdentity is restaurant identity text as scraped from a listing page
type RawIdentity struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Zipcode string `json:"zipcode,omitempty"`
	Phone   string `json:"phone"`
	Site    string `json:"site"` // e.g., "yelp"
}

// RestaurantIdentity is the canonical, query-ready identity of a restaurant.
// It is built once per page visit and never mutated.
type RestaurantIdentity struct {
	Name           string `json:"name"`
	BuildingNumber string `json:"buildingNumber"`
	Street         string `json:"street"`
	Zipcode        string `json:"zipcode,omitempty"` // empty when the site does not expose one
	Phone          string `json:"phone"`
}

// HasZipcode reports whether the identity carries a zipcode
func (i *RestaurantIdentity) HasZipcode() bool {
	return i != nil && i.Zipcode != ""
}

// SiteVariant selects how raw identity text from a site is parsed
type SiteVariant struct {
	Name             string
	StripCountryCode bool
}

// NavigationSession is the per-tab navigation state owned by the navigation trigger
type NavigationSession struct {
	ID            string `json:"id"`
	RestaurantKey string `json:"restaurantKey"`
	Epoch         uint64 `json:"epoch"`
}

// NavigationDecision tells the extension whether to re-run resolution
type NavigationDecision struct {
	Message string `json:"message"`
	Rerun   bool   `json:"rerun"`
	DelayMs int64  `json:"delayMs"`
	Epoch   uint64 `json:"epoch"`
}
