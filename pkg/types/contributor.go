package types

import "time"

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

type Region string

const (
	RegionNorte    Region = "norte"
	RegionCentro   Region = "centro"
	RegionLisboa   Region = "lisboa"
	RegionAlentejo Region = "alentejo"
	RegionAlgarve  Region = "algarve"
	RegionAcores   Region = "acores"
	RegionMadeira  Region = "madeira"
)

var Regions = []Region{RegionNorte, RegionCentro, RegionLisboa, RegionAlentejo, RegionAlgarve, RegionAcores, RegionMadeira}

// Contributor is a registered volunteer maker.
type Contributor struct {
	ID              string   `db:"id" json:"id"`
	Name            string   `db:"name" json:"name"`
	Email           string   `db:"email" json:"email"`
	Phone           *string  `db:"phone" json:"phone,omitempty"`
	Location        *string  `db:"location" json:"location,omitempty"`
	Region          *string  `db:"region" json:"region,omitempty"`
	PrinterModels   []string `db:"printer_models" json:"printer_models"`
	Materials       []string `db:"materials" json:"materials"`
	BuildPlateSize  *string  `db:"build_plate_size" json:"build_plate_size,omitempty"`
	BuildVolumeOK   bool     `db:"build_volume_ok" json:"build_volume_ok"`
	ExperienceLevel *string  `db:"experience_level" json:"experience_level,omitempty"`
	Availability    *string  `db:"availability" json:"availability,omitempty"`
	CanShip         bool     `db:"can_ship" json:"can_ship"`
	ShippingCarrier *string  `db:"shipping_carrier" json:"shipping_carrier,omitempty"`

	Token              string     `db:"token" json:"-"`
	PasswordHash       *string    `db:"password_hash" json:"-"`
	ResetCode          *string    `db:"reset_code" json:"-"`
	ResetCodeExpiresAt *time.Time `db:"reset_code_expires_at" json:"-"`
	ResetCodeAttempts  int        `db:"reset_code_attempts" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Contributor) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}

// NewContributor is the registration payload, used both for self-registration
// and for organizers adding a volunteer by hand.
type NewContributor struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           *string  `json:"phone"`
	Location        *string  `json:"location"`
	Region          *string  `json:"region" validate:"omitempty,region"`
	PrinterModels   []string `json:"printer_models"`
	Materials       []string `json:"materials" validate:"dive,material"`
	BuildPlateSize  *string  `json:"build_plate_size"`
	BuildVolumeOK   bool     `json:"build_volume_ok"`
	ExperienceLevel *string  `json:"experience_level" validate:"omitempty,oneof=beginner intermediate expert"`
	Availability    *string  `json:"availability"`
	CanShip         bool     `json:"can_ship"`
	ShippingCarrier *string  `json:"shipping_carrier"`
}

// ContributorProfile holds the fields a volunteer may edit from the portal.
type ContributorProfile struct {
	Phone           *string  `form:"phone" json:"phone"`
	Location        *string  `form:"location" json:"location"`
	Region          *string  `form:"region" json:"region" validate:"omitempty,region"`
	PrinterModels   []string `form:"printer_models" json:"printer_models"`
	Materials       []string `form:"materials" json:"materials" validate:"dive,material"`
	BuildPlateSize  *string  `form:"build_plate_size" json:"build_plate_size"`
	BuildVolumeOK   bool     `form:"build_volume_ok" json:"build_volume_ok"`
	Availability    *string  `form:"availability" json:"availability"`
	CanShip         bool     `form:"can_ship" json:"can_ship"`
	ShippingCarrier *string  `form:"shipping_carrier" json:"shipping_carrier"`
}

// ContributorFilter narrows the organizer volunteer list.
type ContributorFilter struct {
	Search        string `form:"search"`
	Region        string `form:"region"`
	Printer       string `form:"printer"`
	Material      string `form:"material"`
	Experience    string `form:"experience"`
	BuildVolumeOK *bool  `form:"build_volume_ok"`
}
