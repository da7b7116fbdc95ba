package domain

import "errors"

// Error taxonomy shared across the store, clients and jobs.
var (
	// ErrCorruptStore means the preference file exists but is not valid JSON.
	// Fatal to the triggering operation; nothing attempts recovery.
	ErrCorruptStore = errors.New("preference store is corrupt")

	// ErrTargetUnresolvable means a stored Slack user or channel ID no longer
	// resolves to a deliverable target. The refresh job prunes such entries.
	ErrTargetUnresolvable = errors.New("chat target could not be resolved")

	// ErrCourseNotFound means the timetable API has no match for a course code.
	ErrCourseNotFound = errors.New("course not found")

	// ErrUpstreamUnavailable covers transport and parse failures against the
	// external APIs.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
