// Package memstore is an in-memory stand-in for the postgres repositories,
// used by service tests. Methods mirror the repository signatures.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"comproposito/internal/utils"
	"comproposito/pkg/types"
)

type Store struct {
	mu sync.Mutex

	ContributorRows    map[string]*types.Contributor
	InitiativeRows     map[string]*types.Initiative
	InitiativePartRows map[string]*types.InitiativePart
	ProjectRows        map[string]*types.ProjectInstance
	PartRows           map[string]*types.ProjectPart
	RequestRows        map[string]*types.BeneficiaryRequest
	DonationRows       map[string]*types.Donation

	// Failures makes the named method return the error.
	Failures map[string]error

	seq int
}

func New() *Store {
	return &Store{
		ContributorRows:    make(map[string]*types.Contributor),
		InitiativeRows:     make(map[string]*types.Initiative),
		InitiativePartRows: make(map[string]*types.InitiativePart),
		ProjectRows:        make(map[string]*types.ProjectInstance),
		PartRows:           make(map[string]*types.ProjectPart),
		RequestRows:        make(map[string]*types.BeneficiaryRequest),
		DonationRows:       make(map[string]*types.Donation),
		Failures:           make(map[string]error),
	}
}

func (s *Store) Fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failures[method] = err
}

func (s *Store) failure(method string) error {
	return s.Failures[method]
}

// stamp gives records a strictly increasing creation time so ordering is stable.
func (s *Store) stamp() time.Time {
	s.seq++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

// Contributors

func (s *Store) AddContributor(c *types.Contributor) *types.Contributor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = utils.NanoID()
	}
	if c.Token == "" {
		c.Token = utils.NanoID()
	}
	c.CreatedAt = s.stamp()
	s.ContributorRows[c.ID] = c
	return c
}

func (s *Store) Contributor(_ context.Context, contributorID string) (*types.Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Contributor"); err != nil {
		return nil, err
	}
	c, ok := s.ContributorRows[contributorID]
	if !ok {
		return nil, types.ErrContributorNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ContributorByEmail(_ context.Context, email string) (*types.Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ContributorByEmail"); err != nil {
		return nil, err
	}
	email = utils.NormalizeEmail(email)
	for _, c := range s.ContributorRows {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, types.ErrContributorNotFound
}

func (s *Store) ContributorByToken(_ context.Context, token string) (*types.Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.ContributorRows {
		if token != "" && c.Token == token {
			cp := *c
			return &cp, nil
		}
	}
	return nil, types.ErrContributorNotFound
}

func (s *Store) CreateContributor(_ context.Context, c *types.Contributor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateContributor"); err != nil {
		return err
	}
	c.Email = utils.NormalizeEmail(c.Email)
	for _, existing := range s.ContributorRows {
		if existing.Email == c.Email {
			return types.ErrContributorExists
		}
	}
	c.ID = utils.NanoID()
	c.Token = utils.NanoID()
	c.CreatedAt = s.stamp()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.ContributorRows[c.ID] = &cp
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, contributorID string, p *types.ContributorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ContributorRows[contributorID]
	if !ok {
		return types.ErrContributorNotFound
	}
	c.Phone, c.Location, c.Region = p.Phone, p.Location, p.Region
	c.PrinterModels, c.Materials = p.PrinterModels, p.Materials
	c.BuildPlateSize, c.BuildVolumeOK = p.BuildPlateSize, p.BuildVolumeOK
	c.Availability, c.CanShip, c.ShippingCarrier = p.Availability, p.CanShip, p.ShippingCarrier
	return nil
}

func (s *Store) SetPassword(_ context.Context, contributorID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SetPassword"); err != nil {
		return err
	}
	c, ok := s.ContributorRows[contributorID]
	if !ok {
		return types.ErrContributorNotFound
	}
	c.PasswordHash = &hash
	c.ResetCode, c.ResetCodeExpiresAt, c.ResetCodeAttempts = nil, nil, 0
	return nil
}

func (s *Store) SetResetCode(_ context.Context, contributorID, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SetResetCode"); err != nil {
		return err
	}
	c, ok := s.ContributorRows[contributorID]
	if !ok {
		return types.ErrContributorNotFound
	}
	c.ResetCode, c.ResetCodeExpiresAt, c.ResetCodeAttempts = &code, &expiresAt, 0
	return nil
}

func (s *Store) IncrementResetAttempts(_ context.Context, contributorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ContributorRows[contributorID]
	if !ok {
		return 0, types.ErrContributorNotFound
	}
	c.ResetCodeAttempts++
	return c.ResetCodeAttempts, nil
}

// Initiatives

func (s *Store) AddInitiative(name string, partNames ...string) *types.Initiative {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := &types.Initiative{ID: utils.NanoID(), Name: name, IsActive: true, CreatedAt: s.stamp()}
	s.InitiativeRows[i.ID] = i
	for n, partName := range partNames {
		p := &types.InitiativePart{
			ID:           utils.NanoID(),
			InitiativeID: i.ID,
			PartName:     partName,
			Category:     utils.StringPtr(string(types.PartCategoryStructure)),
			Material:     utils.StringPtr("PETG"),
			SortOrder:    n + 1,
			CreatedAt:    s.stamp(),
		}
		s.InitiativePartRows[p.ID] = p
	}
	return i
}

func (s *Store) Initiative(_ context.Context, initiativeID string) (*types.Initiative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.InitiativeRows[initiativeID]
	if !ok {
		return nil, types.ErrInitiativeNotFound
	}
	cp := *i
	return &cp, nil
}

func (s *Store) InitiativeParts(_ context.Context, initiativeID string) ([]*types.InitiativePart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("InitiativeParts"); err != nil {
		return nil, err
	}
	out := make([]*types.InitiativePart, 0)
	for _, p := range s.InitiativePartRows {
		if p.InitiativeID == initiativeID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Requests

func (s *Store) AddRequest(status types.RequestStatus) *types.BeneficiaryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &types.BeneficiaryRequest{ID: utils.NanoID(), ContactName: "Família", ContactEmail: "familia@example.pt", Status: status, CreatedAt: s.stamp()}
	s.RequestRows[r.ID] = r
	return r
}

func (s *Store) Request(_ context.Context, requestID string) (*types.BeneficiaryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.RequestRows[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) SetRequestStatus(_ context.Context, requestID string, status types.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SetRequestStatus"); err != nil {
		return err
	}
	r, ok := s.RequestRows[requestID]
	if !ok {
		return types.ErrRequestNotFound
	}
	r.Status = status
	return nil
}

// Projects

func (s *Store) Project(_ context.Context, projectID string) (*types.ProjectInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ProjectRows[projectID]
	if !ok {
		return nil, types.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) CreateProject(_ context.Context, p *types.ProjectInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateProject"); err != nil {
		return err
	}
	p.ID = utils.NanoID()
	p.CreatedAt = s.stamp()
	cp := *p
	s.ProjectRows[p.ID] = &cp
	return nil
}

func (s *Store) SetProjectStatus(_ context.Context, projectID string, status types.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SetProjectStatus"); err != nil {
		return err
	}
	p, ok := s.ProjectRows[projectID]
	if !ok {
		return types.ErrProjectNotFound
	}
	p.Status = status
	return nil
}

func (s *Store) DeleteProject(_ context.Context, projectID string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteProject"); err != nil {
		return nil, err
	}
	p, ok := s.ProjectRows[projectID]
	if !ok {
		return nil, types.ErrProjectNotFound
	}
	for id, part := range s.PartRows {
		if part.ProjectInstanceID == projectID {
			delete(s.PartRows, id)
		}
	}
	delete(s.ProjectRows, projectID)
	if p.RequestID != nil {
		if r, ok := s.RequestRows[*p.RequestID]; ok {
			r.Status = types.RequestStatusPending
		}
	}
	return p.RequestID, nil
}

// Parts

func (s *Store) CreateProjectParts(_ context.Context, parts []*types.ProjectPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateProjectParts"); err != nil {
		return err
	}
	for _, p := range parts {
		if p.ID == "" {
			p.ID = utils.NanoID()
		}
		p.CreatedAt = s.stamp()
		cp := *p
		s.PartRows[p.ID] = &cp
	}
	return nil
}

func (s *Store) CreateProjectPart(ctx context.Context, part *types.ProjectPart) error {
	return s.CreateProjectParts(ctx, []*types.ProjectPart{part})
}

func (s *Store) Part(_ context.Context, partID string) (*types.ProjectPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.PartRows[partID]
	if !ok {
		return nil, types.ErrPartNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) partsWhere(keep func(*types.ProjectPart) bool) []*types.ProjectPart {
	out := make([]*types.ProjectPart, 0)
	for _, p := range s.PartRows {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) PartsByProject(_ context.Context, projectID string) ([]*types.ProjectPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("PartsByProject"); err != nil {
		return nil, err
	}
	return s.partsWhere(func(p *types.ProjectPart) bool { return p.ProjectInstanceID == projectID }), nil
}

func (s *Store) PartsByProjects(_ context.Context, projectIDs []string) ([]*types.ProjectPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partsWhere(func(p *types.ProjectPart) bool { return utils.ContainsString(projectIDs, p.ProjectInstanceID) }), nil
}

func (s *Store) PartsInProject(_ context.Context, projectID string, partIDs []string) ([]*types.ProjectPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("PartsInProject"); err != nil {
		return nil, err
	}
	return s.partsWhere(func(p *types.ProjectPart) bool {
		return p.ProjectInstanceID == projectID && utils.ContainsString(partIDs, p.ID)
	}), nil
}

func (s *Store) AllocatedParts(_ context.Context, projectID string) ([]*types.ProjectPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("AllocatedParts"); err != nil {
		return nil, err
	}
	return s.partsWhere(func(p *types.ProjectPart) bool {
		return p.ProjectInstanceID == projectID && p.AssignedContributorID != nil
	}), nil
}

func (s *Store) withProject(parts []*types.ProjectPart) []*types.PartWithProject {
	out := make([]*types.PartWithProject, 0, len(parts))
	for _, p := range parts {
		var name string
		if project, ok := s.ProjectRows[p.ProjectInstanceID]; ok {
			name = project.Name
		}
		out = append(out, &types.PartWithProject{ProjectPart: *p, ProjectName: name})
	}
	return out
}

func (s *Store) PartsWithProject(_ context.Context, partIDs []string) ([]*types.PartWithProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withProject(s.partsWhere(func(p *types.ProjectPart) bool { return utils.ContainsString(partIDs, p.ID) })), nil
}

func (s *Store) PartsByContributor(_ context.Context, contributorID string) ([]*types.PartWithProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withProject(s.partsWhere(func(p *types.ProjectPart) bool {
		return p.AssignedContributorID != nil && *p.AssignedContributorID == contributorID
	})), nil
}

func (s *Store) AssignParts(_ context.Context, projectID, contributorID string, partIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("AssignParts"); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range s.PartRows {
		if p.ProjectInstanceID == projectID && utils.ContainsString(partIDs, p.ID) {
			id := contributorID
			p.AssignedContributorID = &id
			p.Status = types.PartStatusAssigned
			n++
		}
	}
	return n, nil
}

func (s *Store) SetPartStatus(_ context.Context, partID string, status types.PartStatus, clearAssignment bool) (*types.ProjectPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SetPartStatus"); err != nil {
		return nil, err
	}
	p, ok := s.PartRows[partID]
	if !ok {
		return nil, types.ErrPartNotFound
	}
	p.Status = status
	if clearAssignment {
		p.AssignedContributorID = nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) SetPartAssignment(_ context.Context, partID string, contributorID *string, status types.PartStatus) (*types.ProjectPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("SetPartAssignment"); err != nil {
		return nil, err
	}
	p, ok := s.PartRows[partID]
	if !ok {
		return nil, types.ErrPartNotFound
	}
	p.AssignedContributorID = contributorID
	p.Status = status
	cp := *p
	return &cp, nil
}

// Donations

func (s *Store) CreateDonation(_ context.Context, d *types.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateDonation"); err != nil {
		return err
	}
	d.ID = utils.NanoID()
	d.CreatedAt = s.stamp()
	cp := *d
	s.DonationRows[d.ID] = &cp
	return nil
}

func (s *Store) PublicDonations(_ context.Context, limit uint64) ([]*types.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Donation, 0)
	for _, d := range s.DonationRows {
		if d.PublicName {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertInitiative(_ context.Context, i *types.Initiative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.InitiativeRows[i.ID]; ok {
		i.CreatedAt = existing.CreatedAt
	} else {
		i.CreatedAt = s.stamp()
	}
	cp := *i
	s.InitiativeRows[i.ID] = &cp
	return nil
}

func (s *Store) UpsertInitiativePart(_ context.Context, p *types.InitiativePart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.InitiativePartRows[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = s.stamp()
	}
	cp := *p
	s.InitiativePartRows[p.ID] = &cp
	return nil
}

func (s *Store) DeleteInitiativePart(_ context.Context, partID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.InitiativePartRows[partID]; !ok {
		return types.ErrPartNotFound
	}
	delete(s.InitiativePartRows, partID)
	return nil
}

func (s *Store) Contributors(_ context.Context, filter types.ContributorFilter) ([]*types.Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]*types.Contributor, 0)
	for _, c := range s.ContributorRows {
		if search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Email), search) {
			continue
		}
		if filter.Region != "" && utils.PtrString(c.Region) != filter.Region {
			continue
		}
		if filter.Material != "" && !utils.ContainsString(c.Materials, filter.Material) {
			continue
		}
		if filter.BuildVolumeOK != nil && c.BuildVolumeOK != *filter.BuildVolumeOK {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Projects(_ context.Context) ([]*types.ProjectInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.ProjectInstance, 0, len(s.ProjectRows))
	for _, p := range s.ProjectRows {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Requests(_ context.Context, filter types.RequestFilter) ([]*types.BeneficiaryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.BeneficiaryRequest, 0)
	for _, r := range s.RequestRows {
		if len(filter.Status) > 0 && !utils.ContainsString(filter.Status, string(r.Status)) {
			continue
		}
		if filter.Region != "" && utils.PtrString(r.Region) != filter.Region {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateRequest(_ context.Context, r *types.BeneficiaryRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateRequest"); err != nil {
		return err
	}
	r.ID = utils.NanoID()
	r.Status = types.RequestStatusPending
	r.CreatedAt = s.stamp()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.RequestRows[r.ID] = &cp
	return nil
}

func (s *Store) SetRequestNotes(_ context.Context, requestID string, notes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.RequestRows[requestID]
	if !ok {
		return types.ErrRequestNotFound
	}
	r.Notes = notes
	return nil
}

func (s *Store) Initiatives(_ context.Context, activeOnly bool) ([]*types.Initiative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Initiative, 0, len(s.InitiativeRows))
	for _, i := range s.InitiativeRows {
		if activeOnly && !i.IsActive {
			continue
		}
		cp := *i
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateInitiative(_ context.Context, i *types.Initiative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = utils.NanoID()
	i.CreatedAt = s.stamp()
	i.UpdatedAt = i.CreatedAt
	cp := *i
	s.InitiativeRows[i.ID] = &cp
	return nil
}

func (s *Store) UpdateInitiative(_ context.Context, initiativeID string, input *types.NewInitiative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.InitiativeRows[initiativeID]
	if !ok {
		return types.ErrInitiativeNotFound
	}
	i.Name = input.Name
	i.Description = input.Description
	if input.IsActive != nil {
		i.IsActive = *input.IsActive
	}
	i.UpdatedAt = s.stamp()
	return nil
}

func (s *Store) DeleteInitiative(_ context.Context, initiativeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.InitiativeRows[initiativeID]; !ok {
		return types.ErrInitiativeNotFound
	}
	delete(s.InitiativeRows, initiativeID)
	for id, p := range s.InitiativePartRows {
		if p.InitiativeID == initiativeID {
			delete(s.InitiativePartRows, id)
		}
	}
	return nil
}

func (s *Store) InitiativePart(_ context.Context, partID string) (*types.InitiativePart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.InitiativePartRows[partID]
	if !ok {
		return nil, types.ErrPartNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) NextSortOrder(_ context.Context, initiativeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	highest := 0
	for _, p := range s.InitiativePartRows {
		if p.InitiativeID == initiativeID && p.SortOrder > highest {
			highest = p.SortOrder
		}
	}
	return highest + 1, nil
}

func (s *Store) CreateInitiativePart(_ context.Context, p *types.InitiativePart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = utils.NanoID()
	p.CreatedAt = s.stamp()
	cp := *p
	s.InitiativePartRows[p.ID] = &cp
	return nil
}

func (s *Store) UpdateInitiativePart(_ context.Context, p *types.InitiativePart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.InitiativePartRows[p.ID]; !ok {
		return types.ErrPartNotFound
	}
	cp := *p
	s.InitiativePartRows[p.ID] = &cp
	return nil
}

func (s *Store) SetInitiativePartFile(_ context.Context, partID, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.InitiativePartRows[partID]
	if !ok {
		return types.ErrPartNotFound
	}
	p.FileURL = &fileURL
	return nil
}

func (s *Store) Donations(_ context.Context) ([]*types.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Donation, 0, len(s.DonationRows))
	for _, d := range s.DonationRows {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DashboardStats counts in memory what the postgres query aggregates. Region
// breakdown is left empty.
func (s *Store) DashboardStats(_ context.Context) (*types.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &types.DashboardStats{
		TotalRequests:     len(s.RequestRows),
		TotalParts:        len(s.PartRows),
		TotalContributors: len(s.ContributorRows),
		Regions:           []*types.RegionStat{},
	}
	for _, p := range s.ProjectRows {
		if p.Status == types.ProjectStatusCompleted {
			stats.WheelchairsCompleted++
		}
	}
	for _, p := range s.PartRows {
		switch {
		case p.Status == types.PartStatusAssigned || p.Status == types.PartStatusPrinting:
			stats.PartsInProgress++
		case p.Status.Done():
			stats.PartsCompleted++
		}
	}
	return stats, nil
}
