package domain

import "time"

// Submission is the canonical, schema-fixed representation of a form entry
// after alias resolution and normalization.
type Submission struct {
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	ContactNumber      string  `json:"contact_number"` // digits only
	ProjectDescription string  `json:"project_description"`
	Budget             *string `json:"budget"` // nil unless Type is the proposal variant
	Type               string  `json:"type"`
}

// ProposalType is the submission type that carries a budget.
const ProposalType = "rfp"

// StoredRow is a submission enriched with server-side audit data, appended
// as an immutable row to the submission store.
type StoredRow struct {
	Timestamp time.Time
	Submission
	ClientID string
}

// HeaderRow is the fixed header written once when a submission table is
// first created. Column order matches the row layout.
var HeaderRow = []string{
	"Timestamp",
	"Full Name",
	"Email",
	"Contact Number",
	"Project Description",
	"Budget",
	"Type",
	"Client IP",
}

// RateCounterEntry is the per-client rolling counter persisted in the shared
// key-value store. WindowStart is unix milliseconds.
type RateCounterEntry struct {
	Count       int   `json:"count"`
	WindowStart int64 `json:"windowStart"`
}

// Response is the application-level reply for every submission attempt.
// Errors are signaled in-body, not via HTTP status.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
