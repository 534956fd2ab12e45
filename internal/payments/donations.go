// Package payments records donations and opens Stripe PaymentIntents for
// card donations.
package payments

import (
	"context"
	"fmt"
	"strings"

	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v84"
)

const publicWallSize = 50

type DonationStore interface {
	CreateDonation(ctx context.Context, donation *types.Donation) error
	PublicDonations(ctx context.Context, limit uint64) ([]*types.Donation, error)
}

// PaymentIntents is satisfied by the V1PaymentIntents service of a stripe.Client.
type PaymentIntents interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
}

type Service struct {
	logger    *logrus.Logger
	donations DonationStore
	intents   PaymentIntents
	currency  string
}

// NewService wires card payments only when a Stripe key is configured.
func NewService(config *types.Config, logger *logrus.Logger, donations DonationStore) *Service {
	var intents PaymentIntents
	if config.StripeSecretKey != "" {
		intents = stripe.NewClient(config.StripeSecretKey).V1PaymentIntents
	}
	return newService(logger, donations, intents, config.DonationCurrency)
}

func newService(logger *logrus.Logger, donations DonationStore, intents PaymentIntents, currency string) *Service {
	if currency == "" {
		currency = string(stripe.CurrencyEUR)
	}
	return &Service{
		logger:    logger,
		donations: donations,
		intents:   intents,
		currency:  strings.ToLower(currency),
	}
}

func (s *Service) CardEnabled() bool {
	return s.intents != nil
}

// Donate records a pledge. Card donations first open a PaymentIntent and
// return its client secret so the browser can confirm the payment.
func (s *Service) Donate(ctx context.Context, input types.NewDonation) (*types.DonationReceipt, error) {
	if input.AmountCents <= 0 {
		return nil, types.NewValidationError("amount_cents", "must be greater than zero")
	}

	method := types.DonationMethod(input.Method)
	if method == "" {
		method = types.DonationMethodMBWay
	}

	donation := &types.Donation{
		DonorName:   utils.StringPtrOrNil(utils.PtrString(input.DonorName)),
		DonorEmail:  utils.StringPtrOrNil(utils.NormalizeEmail(utils.PtrString(input.DonorEmail))),
		AmountCents: input.AmountCents,
		Currency:    s.currency,
		Method:      string(method),
		Message:     utils.StringPtrOrNil(utils.PtrString(input.Message)),
		PublicName:  input.PublicName,
	}

	receipt := &types.DonationReceipt{Donation: donation}

	if method == types.DonationMethodCard {
		if !s.CardEnabled() {
			return nil, types.ErrPaymentsDisabled
		}

		params := &stripe.PaymentIntentCreateParams{
			Amount:   stripe.Int64(input.AmountCents),
			Currency: stripe.String(s.currency),
			AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
			Description: stripe.String("Donativo 3D com Propósito"),
		}
		if donation.DonorEmail != nil {
			params.ReceiptEmail = donation.DonorEmail
		}

		intent, err := s.intents.Create(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}

		donation.PaymentReference = utils.StringPtr(intent.ID)
		receipt.ClientSecret = intent.ClientSecret
	}

	if err := s.donations.CreateDonation(ctx, donation); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"donation_id":  donation.ID,
		"method":       donation.Method,
		"amount_cents": donation.AmountCents,
	}).Info("donation recorded")

	return receipt, nil
}

// PublicWall lists recent donations whose donors agreed to be named.
func (s *Service) PublicWall(ctx context.Context) ([]*types.PublicDonation, error) {
	donations, err := s.donations.PublicDonations(ctx, publicWallSize)
	if err != nil {
		return nil, err
	}

	out := make([]*types.PublicDonation, 0, len(donations))
	for _, d := range donations {
		name := utils.PtrString(d.DonorName)
		if !d.PublicName || name == "" {
			continue
		}
		out = append(out, &types.PublicDonation{
			DonorName:   name,
			AmountCents: d.AmountCents,
			Message:     d.Message,
			CreatedAt:   d.CreatedAt,
		})
	}

	return out, nil
}
