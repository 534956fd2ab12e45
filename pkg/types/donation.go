package types

import "time"

type DonationMethod string

const (
	DonationMethodMBWay    DonationMethod = "mbway"
	DonationMethodTransfer DonationMethod = "transferencia"
	DonationMethodCard     DonationMethod = "card"
)

type Donation struct {
	ID               string    `db:"id" json:"id"`
	DonorName        *string   `db:"donor_name" json:"donor_name,omitempty"`
	DonorEmail       *string   `db:"donor_email" json:"donor_email,omitempty"`
	AmountCents      int64     `db:"amount_cents" json:"amount_cents"`
	Currency         string    `db:"currency" json:"currency"`
	Method           string    `db:"method" json:"method"`
	Message          *string   `db:"message" json:"message,omitempty"`
	PublicName       bool      `db:"public_name" json:"public_name"`
	PaymentReference *string   `db:"payment_reference" json:"payment_reference,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type NewDonation struct {
	DonorName   *string `json:"donor_name"`
	DonorEmail  *string `json:"donor_email" validate:"omitempty,email"`
	AmountCents int64   `json:"amount_cents" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"omitempty,oneof=mbway transferencia card"`
	Message     *string `json:"message" validate:"omitempty,max=1000"`
	PublicName  bool    `json:"public_name"`
}

// PublicDonation is what the public donor wall shows.
type PublicDonation struct {
	DonorName   string    `json:"donor_name"`
	AmountCents int64     `json:"amount_cents"`
	Message     *string   `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type DonationReceipt struct {
	Donation     *Donation `json:"donation"`
	ClientSecret string    `json:"client_secret,omitempty"`
}
