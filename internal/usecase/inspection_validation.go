package usecase

import (
	"strings"

	"github.com/gradecard/backend/internal/domain"
)

// ValidateInspectionData reports whether a record is meaningful enough to show.
// A record with neither a grade nor a closure action (e.g. an administrative
// action on a pending inspection) is noise; nil is never valid.
func ValidateInspectionData(record *domain.InspectionRecord) bool {
	if record == nil {
		return false
	}
	return record.HasGrade() || !record.HasAction() || record.IsClosure()
}

// VerifyMatch checks that a record belongs to the identity: the phone must
// match, or failing that the building number. Dataset values often carry
// stray whitespace, which is why this is not part of the query.
// A nil record passes through as not verified.
func VerifyMatch(record *domain.InspectionRecord, identity *domain.RestaurantIdentity) bool {
	if record == nil || identity == nil {
		return false
	}
	if strings.TrimSpace(record.Phone) == identity.Phone {
		return true
	}
	return strings.TrimSpace(record.Building) == identity.BuildingNumber
}
