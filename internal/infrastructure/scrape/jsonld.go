package scrape

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
)

// jsonLDAdapter reads the schema.org Restaurant object most listing sites embed
type jsonLDAdapter struct {
	site      string
	keyPrefix string
	log       *logger.Logger
}

func newJSONLDAdapter(site, keyPrefix string, log *logger.Logger) *jsonLDAdapter {
	return &jsonLDAdapter{site: site, keyPrefix: keyPrefix, log: log}
}

func (a *jsonLDAdapter) Site() string { return a.site }

func (a *jsonLDAdapter) RestaurantKey(path string) (string, bool) {
	return pathKey(path, a.keyPrefix)
}

func (a *jsonLDAdapter) Extract(doc *goquery.Document) (domain.RawIdentity, error) {
	objects := a.scrapeJSONLD(doc)

	restaurants := objects["Restaurant"]
	if len(restaurants) == 0 {
		return domain.RawIdentity{}, fmt.Errorf("%w: no schema.org Restaurant on %s page", domain.ErrExtraction, a.site)
	}
	restaurant := restaurants[0]

	raw := domain.RawIdentity{
		Name:  stringField(restaurant, "name"),
		Phone: stringField(restaurant, "telephone"),
	}

	switch address := restaurant["address"].(type) {
	case map[string]any:
		raw.Address = stringField(address, "streetAddress")
		raw.Zipcode = stringField(address, "postalCode")
	case string:
		raw.Address = address
	}

	return raw, nil
}

// scrapeJSONLD groups every JSON-LD object on the page by @type.
// Scripts that fail to parse are logged and skipped.
func (a *jsonLDAdapter) scrapeJSONLD(doc *goquery.Document) map[string][]map[string]any {
	grouped := make(map[string][]map[string]any)

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var parsed any
		if err := json.Unmarshal([]byte(s.Text()), &parsed); err != nil {
			a.log.Warn("json-ld parse failed", "site", a.site, "index", i, "error", err)
			return
		}
		for _, obj := range flattenJSONLD(parsed) {
			for _, typ := range types(obj["@type"]) {
				grouped[typ] = append(grouped[typ], obj)
			}
		}
	})

	return grouped
}

// flattenJSONLD turns a script's payload into a list of objects, expanding
// top-level arrays and @graph containers.
func flattenJSONLD(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = append(out, flattenJSONLD(item)...)
		}
	case map[string]any:
		if graph, ok := t["@graph"]; ok {
			out = append(out, flattenJSONLD(graph)...)
		}
		if _, ok := t["@type"]; ok {
			out = append(out, t)
		}
	}
	return out
}

func types(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", v))
	}
	return ""
}
