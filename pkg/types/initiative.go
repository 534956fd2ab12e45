package types

import "time"

type PartCategory string

const (
	PartCategoryStructure PartCategory = "Estrutura"
	PartCategorySoft      PartCategory = "Peças Macias"
	PartCategoryOther     PartCategory = "Outras"
)

var Materials = []string{"PETG", "PLA", "ABS", "ASA", "TPU", "PC", "Nylon"}

// Initiative is a reusable project template.
type Initiative struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Parts    []*InitiativePart `db:"-" json:"parts,omitempty"`
	Progress *Progress         `db:"-" json:"progress,omitempty"`
}

// InitiativePart is one line of an initiative's bill of parts.
type InitiativePart struct {
	ID             string    `db:"id" json:"id"`
	InitiativeID   string    `db:"initiative_id" json:"initiative_id"`
	PartName       string    `db:"part_name" json:"part_name"`
	Category       *string   `db:"category" json:"category,omitempty"`
	Material       *string   `db:"material" json:"material,omitempty"`
	FileURL        *string   `db:"file_url" json:"file_url,omitempty"`
	SortOrder      int       `db:"sort_order" json:"sort_order"`
	PrintTimeHours *float64  `db:"print_time_hours" json:"print_time_hours,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type NewInitiative struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type NewInitiativePart struct {
	PartName       string   `json:"part_name" form:"part_name" validate:"required,max=200"`
	Category       *string  `json:"category" form:"category" validate:"omitempty,oneof=Estrutura 'Peças Macias' Outras"`
	Material       *string  `json:"material" form:"material" validate:"omitempty,material"`
	FileURL        *string  `json:"file_url" form:"file_url" validate:"omitempty,url"`
	SortOrder      *int     `json:"sort_order" form:"sort_order"`
	PrintTimeHours *float64 `json:"print_time_hours" form:"print_time_hours" validate:"omitempty,gte=0"`
}
