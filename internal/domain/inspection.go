package domain

// ClosedActionPrefix marks an action that closed the establishment.
// Only the first 20 characters of an action are compared against it.
const ClosedActionPrefix = "Establishment Closed"

// InspectionRecord is a single row of the DOHMH restaurant inspection dataset
type InspectionRecord struct {
	Camis          string `json:"camis,omitempty"`
	DBA            string `json:"dba"`
	Boro           string `json:"boro,omitempty"`
	Building       string `json:"building"`
	Street         string `json:"street,omitempty"`
	Zipcode        string `json:"zipcode"`
	Phone          string `json:"phone"`
	Cuisine        string `json:"cuisine_description,omitempty"`
	InspectionDate string `json:"inspection_date"`
	Action         string `json:"action,omitempty"` // empty when absent
	Grade          string `json:"grade,omitempty"`  // A, B, C, Z, "Not Yet Graded" or empty
	GradeDate      string `json:"grade_date,omitempty"`
	InspectionType string `json:"inspection_type,omitempty"`
	ViolationCode  string `json:"violation_code,omitempty"`
	CriticalFlag   string `json:"critical_flag,omitempty"`
	Score          string `json:"score,omitempty"`
	RecordDate     string `json:"record_date,omitempty"`
}

// HasGrade reports whether the record carries any grade value
func (r *InspectionRecord) HasGrade() bool {
	return r != nil && r.Grade != ""
}

// HasAction reports whether the record carries any action text
func (r *InspectionRecord) HasAction() bool {
	return r != nil && r.Action != ""
}

// IsClosure reports whether the record's action closed the establishment
func (r *InspectionRecord) IsClosure() bool {
	if !r.HasAction() {
		return false
	}
	action := r.Action
	if len(action) > len(ClosedActionPrefix) {
		action = action[:len(ClosedActionPrefix)]
	}
	return action == ClosedActionPrefix
}

// InspectionQuery holds SODA query parameters. Empty fields are not sent.
type InspectionQuery struct {
	Where string // $where
	Q     string // $q
	Order string // $order
	Limit string // $limit
}

// Stage is a state of the resolution cascade
type Stage int

const (
	StageStructuredLoose Stage = iota
	StageStructuredStrict
	StageFullTextLoose
	StageFullTextStrict
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageStructuredLoose:
		return "structured_loose"
	case StageStructuredStrict:
		return "structured_strict"
	case StageFullTextLoose:
		return "full_text_loose"
	case StageFullTextStrict:
		return "full_text_strict"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// StageOutcome records what a single cascade stage saw
type StageOutcome struct {
	Stage    Stage  `json:"-"`
	Name     string `json:"stage"`
	Queried  bool   `json:"queried"`
	Found    bool   `json:"found"`
	Valid    bool   `json:"valid"`
	Verified bool   `json:"verified"`
}

// MatchResult is the outcome of a resolution. Record is nil when no acceptable record was found.
type MatchResult struct {
	Record  *InspectionRecord `json:"record,omitempty"`
	Stage   string            `json:"stage,omitempty"` // stage that produced Record
	Queries int               `json:"queries"`
	Trace   []StageOutcome    `json:"trace,omitempty"`
}

// Found reports whether the resolution produced a record
func (m *MatchResult) Found() bool {
	return m != nil && m.Record != nil
}

// GradeClass is the badge class consumed by the renderer
type GradeClass string

const (
	GradeA         GradeClass = "gradeA"
	GradeB         GradeClass = "gradeB"
	GradeC         GradeClass = "gradeC"
	GradePending   GradeClass = "gradePending"
	NotYetGraded   GradeClass = "notYetGraded"
	GradeClosed    GradeClass = "gradeClosed"
	NoResultsFound GradeClass = "noResultsFound"
)

// Badge is what the extension renders for a restaurant page
type Badge struct {
	Class          GradeClass        `json:"class"`
	Site           string            `json:"site"`
	InspectionDate string            `json:"inspectionDate,omitempty"` // M/D/YYYY
	Record         *InspectionRecord `json:"record,omitempty"`
	Stage          string            `json:"stage,omitempty"`
	Queries        int               `json:"queries"`
}
