package soda

import (
	"fmt"
	"net/url"

	"github.com/gradecard/backend/internal/domain"
)

// SODA query parameter names
const (
	ParamWhere = "$where"
	ParamQ     = "$q"
	ParamOrder = "$order"
	ParamLimit = "$limit"
)

// EncodeQuery converts an InspectionQuery into URL parameters, omitting empty clauses
func EncodeQuery(query domain.InspectionQuery) url.Values {
	params := url.Values{}
	if query.Where != "" {
		params.Set(ParamWhere, query.Where)
	}
	if query.Q != "" {
		params.Set(ParamQ, query.Q)
	}
	if query.Order != "" {
		params.Set(ParamOrder, query.Order)
	}
	if query.Limit != "" {
		params.Set(ParamLimit, query.Limit)
	}
	return params
}

// requestURL builds the dataset resource URL for query
func (c *Client) requestURL(query domain.InspectionQuery) string {
	endpoint := fmt.Sprintf("%s/resource/%s.json", c.baseURL, c.dataset)
	params := EncodeQuery(query)
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}
