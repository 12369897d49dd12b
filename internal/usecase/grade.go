package usecase

import (
	"fmt"
	"time"

	"github.com/gradecard/backend/internal/domain"
)

// inspectionDateLayouts are the timestamp shapes the dataset has used.
// Floating timestamps carry no zone and are read in the display location.
var inspectionDateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ClassifyGrade maps a resolved record to the badge class the renderer shows.
// Unrecognized grade or action values are errors: they mean the dataset
// changed shape and the classifier needs updating.
func ClassifyGrade(record *domain.InspectionRecord) (domain.GradeClass, error) {
	if record == nil {
		return domain.NoResultsFound, nil
	}

	if record.HasGrade() {
		switch record.Grade {
		case "A":
			return domain.GradeA, nil
		case "B":
			return domain.GradeB, nil
		case "C":
			return domain.GradeC, nil
		case "Z":
			return domain.GradePending, nil
		case "Not Yet Graded":
			return domain.NotYetGraded, nil
		default:
			return "", fmt.Errorf("%w: %q", domain.ErrUnknownGrade, record.Grade)
		}
	}

	switch {
	case !record.HasAction():
		return domain.NotYetGraded, nil
	case record.IsClosure():
		return domain.GradeClosed, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAction, record.Action)
	}
}

// FormatInspectionDate renders the record's inspection date as M/D/YYYY.
// Month and year come from loc while the day of month comes from UTC; badges
// have always been rendered this way and users compare against them.
// It returns false when the record has neither grade nor action, or the
// date cannot be parsed.
func FormatInspectionDate(record *domain.InspectionRecord, loc *time.Location) (string, bool) {
	if record == nil || (!record.HasGrade() && !record.HasAction()) {
		return "", false
	}
	if loc == nil {
		loc = time.Local
	}

	t, err := parseInspectionDate(record.InspectionDate, loc)
	if err != nil {
		return "", false
	}

	local := t.In(loc)
	return fmt.Sprintf("%d/%d/%d", int(local.Month()), t.UTC().Day(), local.Year()), true
}

func parseInspectionDate(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range inspectionDateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized inspection date %q", value)
}
