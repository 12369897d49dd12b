package domain

import "errors"

var (
	// ErrExtraction is returned when a restaurant identity cannot be derived from scraped data
	ErrExtraction = errors.New("identity extraction failed")

	// ErrUnsupportedSite is returned when no site adapter exists for a page
	ErrUnsupportedSite = errors.New("unsupported site")

	// ErrNetwork is returned when a request to the inspection dataset fails
	ErrNetwork = errors.New("inspection data request failed")

	// ErrUnknownGrade is returned when a record carries a grade value we do not recognize
	ErrUnknownGrade = errors.New("no matching grade")

	// ErrUnknownAction is returned when an ungraded record carries an unrecognized action
	ErrUnknownAction = errors.New("no matching action")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSessionNotFound is returned when a navigation session is unknown or expired
	ErrSessionNotFound = errors.New("navigation session not found")

	// ErrResolutionCancelled is returned when a resolution is aborted by a newer navigation
	ErrResolutionCancelled = errors.New("resolution cancelled")

	// ErrStaleResolution is returned when a resolution completes after its session moved on
	ErrStaleResolution = errors.New("resolution result is stale")
)
