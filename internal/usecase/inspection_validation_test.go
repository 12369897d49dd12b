package usecase

import (
	"testing"

	"github.com/gradecard/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidateInspectionData(t *testing.T) {
	tests := []struct {
		name   string
		record *domain.InspectionRecord
		want   bool
	}{
		{"nil record", nil, false},
		{"graded", &domain.InspectionRecord{Grade: "A"}, true},
		{"no grade and no action", &domain.InspectionRecord{}, true},
		{"closure action", &domain.InspectionRecord{Action: "Establishment Closed effective immediately"}, true},
		{"closure action exact prefix", &domain.InspectionRecord{Action: "Establishment Closed"}, true},
		{"other action", &domain.InspectionRecord{Action: "Other"}, false},
		{"violations cited without grade", &domain.InspectionRecord{Action: "Violations were cited in the following area(s)."}, false},
		{"re-opened is not closure", &domain.InspectionRecord{Action: "Establishment re-opened by DOHMH."}, false},
		{"grade wins over other action", &domain.InspectionRecord{Grade: "B", Action: "Violations were cited"}, true},
		{"case sensitive prefix", &domain.InspectionRecord{Action: "establishment closed by DOHMH"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateInspectionData(tt.record))
		})
	}
}

func TestVerifyMatch(t *testing.T) {
	identity := &domain.RestaurantIdentity{Name: "joe’s pizza", BuildingNumber: "7", Street: "Carmine", Phone: "2125551234"}

	tests := []struct {
		name   string
		record *domain.InspectionRecord
		want   bool
	}{
		{"nil record passes through unverified", nil, false},
		{"phone with whitespace matches", &domain.InspectionRecord{Phone: " 2125551234 ", Building: "99"}, true},
		{"phone mismatch, building matches", &domain.InspectionRecord{Phone: "7185550000", Building: " 7 "}, true},
		{"phone and building mismatch", &domain.InspectionRecord{Phone: "7185550000", Building: "8"}, false},
		{"empty record fields", &domain.InspectionRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyMatch(tt.record, identity))
		})
	}
}
