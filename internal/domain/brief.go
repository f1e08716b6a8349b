package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// BriefStatus represents the lifecycle state of a research brief job.
// Values include BriefStatusProcessing, BriefStatusCompleted, and BriefStatusFailed.
type BriefStatus string

const (
	BriefStatusProcessing BriefStatus = "processing"
	BriefStatusCompleted  BriefStatus = "completed"
	BriefStatusFailed     BriefStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
// Parameters: none.
// Returns:
//   - bool: true for completed or failed.
func (s BriefStatus) IsTerminal() bool {
	return s == BriefStatusCompleted || s == BriefStatusFailed
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// KeyPoint is a single sourced finding inside a research brief.
// SourceURL must be one of the URLs that extracted successfully in the run
// that produced the brief. SourceSnippet is an exact excerpt supporting the
// point and may be empty.
type KeyPoint struct {
	Text          string `json:"text"`
	SourceURL     string `json:"source_url"`
	SourceSnippet string `json:"source_snippet,omitempty"`
}

// ConflictingClaim captures a contradiction between sources.
type ConflictingClaim struct {
	Claim   string   `json:"claim"`
	Sources []string `json:"sources"`
}

// ResearchBrief is the structured synthesis result. It is only ever
// constructed after full validation of the backend response; a malformed
// response becomes a failed Brief, never a partial ResearchBrief.
type ResearchBrief struct {
	Summary               string             `json:"summary"`
	KeyPoints             []KeyPoint         `json:"key_points"`
	ConflictingClaims     []ConflictingClaim `json:"conflicting_claims"`
	VerificationChecklist []string           `json:"verification_checklist"`
}

// Value implements the driver.Valuer interface for database serialization.
func (r *ResearchBrief) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (r *ResearchBrief) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ResearchBrief")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, r)
}

// Brief represents one submission's lifecycle record, from creation to its
// terminal outcome. SubmittedURLs is fixed at creation. Status transitions
// exactly once, from processing to completed or failed. Result is set iff
// the brief completed; ErrorReason is set iff it failed.
type Brief struct {
	ID            string         `gorm:"type:text;primaryKey" json:"id"`
	SubmittedURLs StringArray    `gorm:"type:text;not null;column:submitted_urls" json:"submitted_urls"`
	Status        BriefStatus    `gorm:"type:text;index:idx_briefs_status;default:processing" json:"status"`
	Result        *ResearchBrief `gorm:"type:text" json:"result,omitempty"`
	ErrorReason   string         `gorm:"type:text" json:"error_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Brief.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Brief) TableName() string {
	return "briefs"
}
