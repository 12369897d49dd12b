package usecase

import (
	"fmt"

	"github.com/gradecard/backend/internal/domain"
)

const (
	orderMostRecent   = "inspection_date DESC"
	limitOne          = "1"
	gradeNotNullWhere = "grade IS NOT NULL"
)

// BuildStructuredQuery matches on phone, or on name and zipcode together.
// The grade filter is appended to the existing $where clause as-is, so it
// binds to the name/zipcode branch only (AND precedes OR in SoQL).
func BuildStructuredQuery(identity *domain.RestaurantIdentity, gradeNotNull bool) domain.InspectionQuery {
	where := fmt.Sprintf("phone='%s' OR ( dba='%s' AND zipcode='%s' )",
		identity.Phone, identity.Name, identity.Zipcode)
	if gradeNotNull {
		where += " AND " + gradeNotNullWhere
	}

	return domain.InspectionQuery{
		Where: where,
		Order: orderMostRecent,
		Limit: limitOne,
	}
}

// BuildFullTextQuery runs a relevance search over name, building and street.
// Unlike the structured query, the grade filter here is the whole $where clause.
func BuildFullTextQuery(identity *domain.RestaurantIdentity, gradeNotNull bool) domain.InspectionQuery {
	query := domain.InspectionQuery{
		Q:     identity.Name + " " + identity.BuildingNumber + " " + identity.Street,
		Order: orderMostRecent,
		Limit: limitOne,
	}
	if gradeNotNull {
		query.Where = gradeNotNullWhere
	}
	return query
}

// QueryForStage returns the query a cascade stage issues
func QueryForStage(stage domain.Stage, identity *domain.RestaurantIdentity) (domain.InspectionQuery, bool) {
	switch stage {
	case domain.StageStructuredLoose:
		return BuildStructuredQuery(identity, false), true
	case domain.StageStructuredStrict:
		return BuildStructuredQuery(identity, true), true
	case domain.StageFullTextLoose:
		return BuildFullTextQuery(identity, false), true
	case domain.StageFullTextStrict:
		return BuildFullTextQuery(identity, true), true
	default:
		return domain.InspectionQuery{}, false
	}
}
