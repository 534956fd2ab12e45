package server

import (
	"net/http"
	"strings"

	"comproposito/internal/utils"
	"comproposito/pkg/types"
)

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Stats.DashboardStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Service) handleGetActiveInitiatives(w http.ResponseWriter, r *http.Request) {
	initiatives, err := s.Initiatives.Initiatives(r.Context(), true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, initiatives)
}

func (s *Service) handleGetPublicDonations(w http.ResponseWriter, r *http.Request) {
	wall, err := s.Payments.PublicWall(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wall)
}

func (s *Service) handlePostDonation(w http.ResponseWriter, r *http.Request) {
	var input types.NewDonation
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	receipt, err := s.Payments.Donate(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, receipt)
}

func contributorFromInput(input types.NewContributor) *types.Contributor {
	return &types.Contributor{
		Name:            strings.TrimSpace(input.Name),
		Email:           utils.NormalizeEmail(input.Email),
		Phone:           utils.StringPtrOrNil(utils.PtrString(input.Phone)),
		Location:        utils.StringPtrOrNil(utils.PtrString(input.Location)),
		Region:          utils.StringPtrOrNil(utils.PtrString(input.Region)),
		PrinterModels:   utils.UniqueStrings(input.PrinterModels),
		Materials:       utils.UniqueStrings(input.Materials),
		BuildPlateSize:  utils.StringPtrOrNil(utils.PtrString(input.BuildPlateSize)),
		BuildVolumeOK:   input.BuildVolumeOK,
		ExperienceLevel: utils.StringPtrOrNil(utils.PtrString(input.ExperienceLevel)),
		Availability:    utils.StringPtrOrNil(utils.PtrString(input.Availability)),
		CanShip:         input.CanShip,
		ShippingCarrier: utils.StringPtrOrNil(utils.PtrString(input.ShippingCarrier)),
	}
}

func (s *Service) createContributor(w http.ResponseWriter, r *http.Request) (*types.Contributor, bool) {
	var input types.NewContributor
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	input.Email = utils.NormalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}

	contributor := contributorFromInput(input)
	if err := s.Contributors.CreateContributor(r.Context(), contributor); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}

	s.logger.WithField("contributor_id", contributor.ID).Info("contributor registered")

	return contributor, true
}

// handlePostContributor is volunteer self-registration. The welcome e-mail
// carries the portal link; failing to send it does not undo the registration.
func (s *Service) handlePostContributor(w http.ResponseWriter, r *http.Request) {
	contributor, ok := s.createContributor(w, r)
	if !ok {
		return
	}

	var warnings []string
	if _, err := s.Notifier.Welcome(r.Context(), contributor.ID); err != nil {
		s.logger.WithError(err).WithField("contributor_id", contributor.ID).Warn("welcome e-mail failed")
		warnings = append(warnings, "registered but the welcome e-mail could not be sent: "+err.Error())
	}

	s.writeResult(w, http.StatusCreated, contributor, warnings)
}

func (s *Service) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	var input types.NewBeneficiaryRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	input.ContactEmail = utils.NormalizeEmail(input.ContactEmail)
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	request := &types.BeneficiaryRequest{
		ContactName:     strings.TrimSpace(input.ContactName),
		ContactEmail:    utils.NormalizeEmail(input.ContactEmail),
		ContactPhone:    utils.StringPtrOrNil(utils.PtrString(input.ContactPhone)),
		Region:          utils.StringPtrOrNil(utils.PtrString(input.Region)),
		BeneficiaryType: utils.StringPtrOrNil(utils.PtrString(input.BeneficiaryType)),
		BeneficiaryAge:  input.BeneficiaryAge,
		Description:     utils.StringPtrOrNil(utils.PtrString(input.Description)),
		HowFoundUs:      utils.StringPtrOrNil(utils.PtrString(input.HowFoundUs)),
	}
	if err := s.Requests.CreateRequest(r.Context(), request); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.WithField("request_id", request.ID).Info("beneficiary request received")

	s.writeJSON(w, http.StatusCreated, request)
}
