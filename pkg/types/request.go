package types

import "time"

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pendente"
	RequestStatusReviewing  RequestStatus = "em_avaliacao"
	RequestStatusApproved   RequestStatus = "aprovado"
	RequestStatusInProgress RequestStatus = "em_andamento"
	RequestStatusCompleted  RequestStatus = "concluido"
	RequestStatusCancelled  RequestStatus = "cancelado"
)

var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusReviewing,
	RequestStatusApproved,
	RequestStatusInProgress,
	RequestStatusCompleted,
	RequestStatusCancelled,
}

// OpenRequestStatuses are the statuses a request may have when a project is created for it.
var OpenRequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusReviewing, RequestStatusApproved}

func (s RequestStatus) Valid() bool {
	for _, v := range RequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type BeneficiaryType string

const (
	BeneficiaryUpTo8 BeneficiaryType = "ate_8"
	BeneficiaryOver8 BeneficiaryType = "mais_8"
	BeneficiaryAdult BeneficiaryType = "adulto"
)

// BeneficiaryRequest is a family's request for a wheelchair.
type BeneficiaryRequest struct {
	ID              string        `db:"id" json:"id"`
	ContactName     string        `db:"contact_name" json:"contact_name"`
	ContactEmail    string        `db:"contact_email" json:"contact_email"`
	ContactPhone    *string       `db:"contact_phone" json:"contact_phone,omitempty"`
	Region          *string       `db:"region" json:"region,omitempty"`
	BeneficiaryType *string       `db:"beneficiary_type" json:"beneficiary_type,omitempty"`
	BeneficiaryAge  *int          `db:"beneficiary_age" json:"beneficiary_age,omitempty"`
	Description     *string       `db:"description" json:"description,omitempty"`
	HowFoundUs      *string       `db:"how_found_us" json:"how_found_us,omitempty"`
	Status          RequestStatus `db:"status" json:"status"`
	Notes           *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

type NewBeneficiaryRequest struct {
	ContactName     string  `json:"contact_name" validate:"required,max=200"`
	ContactEmail    string  `json:"contact_email" validate:"required,email"`
	ContactPhone    *string `json:"contact_phone"`
	Region          *string `json:"region" validate:"omitempty,region"`
	BeneficiaryType *string `json:"beneficiary_type" validate:"omitempty,oneof=ate_8 mais_8 adulto"`
	BeneficiaryAge  *int    `json:"beneficiary_age" validate:"omitempty,gte=0,lte=120"`
	Description     *string `json:"description"`
	HowFoundUs      *string `json:"how_found_us"`
}

type RequestFilter struct {
	Status []string `form:"status"`
	Region string   `form:"region"`
}
