package types

import "time"

// Project represents a tracked client project.
// Ownership is expressed by attribute: the project belongs to whichever
// company ClientCompany names, matched case-insensitively against the
// caller's company.
type Project struct {
	// ID is the unique identifier of the project.
	ID int `json:"projId" db:"id"`

	// Name is the short project name.
	Name string `json:"projName" db:"proj_name"`

	// ClientCompany is the owning company. Set from the creator's
	// company on create and immutable afterwards.
	ClientCompany string `json:"clientCompany" db:"client_company"`

	// ClientEmail is the address that receives status-change
	// notifications. Set from the creator's email on create and
	// immutable afterwards.
	ClientEmail string `json:"clientEmail" db:"client_email"`

	// Type categorizes the project (e.g. "Drug Discovery",
	// "Clinical Trial", "Manufacturing").
	Type string `json:"projType" db:"proj_type"`

	// Title is the longer descriptive title.
	Title string `json:"projTitle" db:"proj_title"`

	// Phase is the current phase (e.g. "Preclinical", "Phase I").
	Phase string `json:"currPhase" db:"curr_phase"`

	// Status is the current status: Active, On Hold, Completed, Cancelled.
	Status string `json:"status" db:"status"`

	// Details holds free-text notes about the project.
	Details string `json:"projDetails" db:"proj_details"`

	// StartDate and EstCompDate bound the planned schedule.
	StartDate   *time.Time `json:"startDate" db:"start_date"`
	EstCompDate *time.Time `json:"estCompDate" db:"est_comp_date"`

	// CreatedBy is the id of the user who created the project.
	// Immutable after create.
	CreatedBy int `json:"createdBy" db:"created_by"`

	// EmailNotifications controls whether status changes are mailed to
	// ClientEmail. Defaults to true on create. A nil value on an update
	// payload means "keep the stored setting".
	EmailNotifications *bool `json:"emailNotifications" db:"email_notifications"`

	// CreatedDate is the timestamp when the project was created.
	// Immutable after create.
	CreatedDate time.Time `json:"createdDate" db:"created_date"`

	// UpdatedDate is the timestamp of the most recent update.
	UpdatedDate time.Time `json:"updatedDate" db:"updated_date"`
}

// NotificationsEnabled resolves the EmailNotifications flag, treating
// nil as false.
func (p Project) NotificationsEnabled() bool {
	return p.EmailNotifications != nil && *p.EmailNotifications
}
