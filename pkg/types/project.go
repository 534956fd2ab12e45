package types

import "time"

type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "planning"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	_, ok := projectRequestStatus[s]
	return ok
}

var projectRequestStatus = map[ProjectStatus]RequestStatus{
	ProjectStatusPlanning:   RequestStatusApproved,
	ProjectStatusInProgress: RequestStatusInProgress,
	ProjectStatusCompleted:  RequestStatusCompleted,
	ProjectStatusCancelled:  RequestStatusCancelled,
}

// RequestStatus returns the beneficiary request status that mirrors a project status.
func (s ProjectStatus) RequestStatus() (RequestStatus, bool) {
	rs, ok := projectRequestStatus[s]
	return rs, ok
}

type PartStatus string

const (
	PartStatusUnassigned PartStatus = "unassigned"
	PartStatusAssigned   PartStatus = "assigned"
	PartStatusPrinting   PartStatus = "printing"
	PartStatusPrinted    PartStatus = "printed"
	PartStatusShipped    PartStatus = "shipped"
	PartStatusComplete   PartStatus = "complete"
)

var PartStatuses = []PartStatus{
	PartStatusUnassigned,
	PartStatusAssigned,
	PartStatusPrinting,
	PartStatusPrinted,
	PartStatusShipped,
	PartStatusComplete,
}

func (s PartStatus) Valid() bool {
	for _, v := range PartStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Done reports whether a part counts toward completion.
func (s PartStatus) Done() bool {
	return s == PartStatusPrinted || s == PartStatusShipped || s == PartStatusComplete
}

// ProjectInstance is a concrete job built from an initiative for one request.
type ProjectInstance struct {
	ID           string        `db:"id" json:"id"`
	InitiativeID string        `db:"initiative_id" json:"initiative_id"`
	RequestID    *string       `db:"request_id" json:"request_id,omitempty"`
	Name         string        `db:"name" json:"name"`
	Status       ProjectStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`

	Parts    []*ProjectPart `db:"-" json:"parts,omitempty"`
	Progress *Progress      `db:"-" json:"progress,omitempty"`
}

// ProjectPart is a trackable unit of work inside a project.
type ProjectPart struct {
	ID                    string     `db:"id" json:"id"`
	ProjectInstanceID     string     `db:"project_instance_id" json:"project_instance_id"`
	InitiativePartID      *string    `db:"initiative_part_id" json:"initiative_part_id,omitempty"`
	PartName              string     `db:"part_name" json:"part_name"`
	Category              *string    `db:"category" json:"category,omitempty"`
	Material              *string    `db:"material" json:"material,omitempty"`
	FileURL               *string    `db:"file_url" json:"file_url,omitempty"`
	Status                PartStatus `db:"status" json:"status"`
	AssignedContributorID *string    `db:"assigned_contributor_id" json:"assigned_contributor_id,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

type NewProject struct {
	InitiativeID string `json:"initiative_id" validate:"required"`
	RequestID    string `json:"request_id" validate:"required"`
	Name         string `json:"name" validate:"max=200"`
}

type NewProjectPart struct {
	PartName string  `json:"part_name" validate:"required,max=200"`
	Category *string `json:"category"`
	Material *string `json:"material" validate:"omitempty,material"`
	FileURL  *string `json:"file_url" validate:"omitempty,url"`
}

// PartWithProject joins a part with the project it belongs to, as listed in
// allocation e-mails and on the volunteer portal.
type PartWithProject struct {
	ProjectPart
	ProjectName string `db:"project_name" json:"project_name"`
}
