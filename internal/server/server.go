package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"comproposito/internal/allocation"
	"comproposito/internal/instantiate"
	"comproposito/internal/lifecycle"
	"comproposito/internal/payments"
	"comproposito/internal/recovery"
	"comproposito/internal/storage"
	"comproposito/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type ContributorRepository interface {
	Contributors(ctx context.Context, filter types.ContributorFilter) ([]*types.Contributor, error)
	Contributor(ctx context.Context, contributorID string) (*types.Contributor, error)
	ContributorByToken(ctx context.Context, token string) (*types.Contributor, error)
	CreateContributor(ctx context.Context, contributor *types.Contributor) error
	UpdateProfile(ctx context.Context, contributorID string, profile *types.ContributorProfile) error
}

type InitiativeRepository interface {
	Initiatives(ctx context.Context, activeOnly bool) ([]*types.Initiative, error)
	Initiative(ctx context.Context, initiativeID string) (*types.Initiative, error)
	CreateInitiative(ctx context.Context, initiative *types.Initiative) error
	UpdateInitiative(ctx context.Context, initiativeID string, input *types.NewInitiative) error
	DeleteInitiative(ctx context.Context, initiativeID string) error
	InitiativeParts(ctx context.Context, initiativeID string) ([]*types.InitiativePart, error)
	InitiativePart(ctx context.Context, partID string) (*types.InitiativePart, error)
	NextSortOrder(ctx context.Context, initiativeID string) (int, error)
	CreateInitiativePart(ctx context.Context, part *types.InitiativePart) error
	UpdateInitiativePart(ctx context.Context, part *types.InitiativePart) error
	SetInitiativePartFile(ctx context.Context, partID, fileURL string) error
	DeleteInitiativePart(ctx context.Context, partID string) error
}

type RequestRepository interface {
	Requests(ctx context.Context, filter types.RequestFilter) ([]*types.BeneficiaryRequest, error)
	Request(ctx context.Context, requestID string) (*types.BeneficiaryRequest, error)
	CreateRequest(ctx context.Context, request *types.BeneficiaryRequest) error
	SetRequestNotes(ctx context.Context, requestID string, notes *string) error
}

type ProjectRepository interface {
	Projects(ctx context.Context) ([]*types.ProjectInstance, error)
	PartsByContributor(ctx context.Context, contributorID string) ([]*types.PartWithProject, error)
}

type DonationRepository interface {
	Donations(ctx context.Context) ([]*types.Donation, error)
}

type StatsRepository interface {
	DashboardStats(ctx context.Context) (*types.DashboardStats, error)
}

type Notifier interface {
	Welcome(ctx context.Context, contributorID string) (*types.NotifyResult, error)
	PartAllocated(ctx context.Context, contributorID string, partIDs []string) (*types.NotifyResult, error)
	PortalURL(token string) string
}

type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

// KeySetLookup resolves the organizer JWKS, normally a *jwk.Cache.
type KeySetLookup interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

// Backends groups everything the handlers call into.
type Backends struct {
	Contributors ContributorRepository
	Initiatives  InitiativeRepository
	Requests     RequestRepository
	Projects     ProjectRepository
	Donations    DonationRepository
	Stats        StatsRepository

	Allocation  *allocation.Engine
	Lifecycle   *lifecycle.Manager
	Instantiate *instantiate.Service
	Recovery    *recovery.Service
	Payments    *payments.Service
	Notifier    Notifier
	Files       storage.FileStore

	Cognito CognitoAPI
	JWKS    KeySetLookup
	JWKSURL string
}

type Service struct {
	logger *logrus.Logger
	config *types.Config
	Backends

	cookie  *securecookie.SecureCookie
	mux     *flow.Mux
	handler http.Handler
	server  *http.Server
}

func New(config *types.Config, logger *logrus.Logger, backends Backends) (*Service, error) {
	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie block key: %w", err)
	}

	mux := flow.New()

	s := &Service{
		logger:   logger,
		config:   config,
		Backends: backends,
		cookie:   securecookie.New(hashKey, blockKey),
		mux:      mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	// Unmatched routes bypass flow middleware, so the redirect wraps the mux.
	s.handler = s.StripTrailingSlash(mux)
	s.server.Handler = s.handler

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests and embedding.
func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/api/stats", s.handleGetStats, http.MethodGet)
	r.HandleFunc("/api/initiatives", s.handleGetActiveInitiatives, http.MethodGet)
	r.HandleFunc("/api/donations/public", s.handleGetPublicDonations, http.MethodGet)
	r.HandleFunc("/api/donations", s.handlePostDonation, http.MethodPost)
	r.HandleFunc("/api/contributors", s.handlePostContributor, http.MethodPost)
	r.HandleFunc("/api/requests", s.handlePostRequest, http.MethodPost)

	r.HandleFunc("/functions/contributor-auth", s.handleContributorAuth, http.MethodPost)

	r.HandleFunc("/portal", s.handleGetPortal, http.MethodGet)
	r.HandleFunc("/portal/profile", s.handlePostPortalProfile, http.MethodPost)
	r.HandleFunc("/portal/parts/:partID/status", s.handlePostPortalPartStatus, http.MethodPost)

	r.HandleFunc("/auth/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/auth/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/auth/me", s.handleGetMe, http.MethodGet)

		r.HandleFunc("/functions/notify-part-allocated", s.handleNotifyPartAllocated, http.MethodPost)
		r.HandleFunc("/functions/volunteer-welcome", s.handleVolunteerWelcome, http.MethodPost)

		r.HandleFunc("/api/admin/contributors", s.handleGetContributors, http.MethodGet)
		r.HandleFunc("/api/admin/contributors", s.handlePostAdminContributor, http.MethodPost)
		r.HandleFunc("/api/admin/contributors/:contributorID", s.handleGetContributor, http.MethodGet)

		r.HandleFunc("/api/admin/initiatives", s.handleGetInitiatives, http.MethodGet)
		r.HandleFunc("/api/admin/initiatives", s.handlePostInitiative, http.MethodPost)
		r.HandleFunc("/api/admin/initiatives/:initiativeID", s.handleGetInitiative, http.MethodGet)
		r.HandleFunc("/api/admin/initiatives/:initiativeID", s.handlePutInitiative, http.MethodPut)
		r.HandleFunc("/api/admin/initiatives/:initiativeID", s.handleDeleteInitiative, http.MethodDelete)
		r.HandleFunc("/api/admin/initiatives/:initiativeID/active", s.handlePostInitiativeActive, http.MethodPost)
		r.HandleFunc("/api/admin/initiatives/:initiativeID/parts", s.handlePostInitiativePart, http.MethodPost)
		r.HandleFunc("/api/admin/initiative-parts/:partID", s.handlePutInitiativePart, http.MethodPut)
		r.HandleFunc("/api/admin/initiative-parts/:partID", s.handleDeleteInitiativePart, http.MethodDelete)
		r.HandleFunc("/api/admin/initiative-parts/:partID/file", s.handlePostInitiativePartFile, http.MethodPost)

		r.HandleFunc("/api/admin/requests", s.handleGetRequests, http.MethodGet)
		r.HandleFunc("/api/admin/requests/:requestID/status", s.handlePostRequestStatus, http.MethodPost)
		r.HandleFunc("/api/admin/requests/:requestID/notes", s.handlePostRequestNotes, http.MethodPost)

		r.HandleFunc("/api/admin/projects", s.handleGetProjects, http.MethodGet)
		r.HandleFunc("/api/admin/projects", s.handlePostProject, http.MethodPost)
		r.HandleFunc("/api/admin/projects/:projectID", s.handleGetProject, http.MethodGet)
		r.HandleFunc("/api/admin/projects/:projectID", s.handleDeleteProject, http.MethodDelete)
		r.HandleFunc("/api/admin/projects/:projectID/status", s.handlePostProjectStatus, http.MethodPost)
		r.HandleFunc("/api/admin/projects/:projectID/allocate", s.handlePostAllocate, http.MethodPost)
		r.HandleFunc("/api/admin/projects/:projectID/resend", s.handlePostResend, http.MethodPost)
		r.HandleFunc("/api/admin/projects/:projectID/parts", s.handlePostProjectPart, http.MethodPost)

		r.HandleFunc("/api/admin/parts/:partID/assign", s.handlePostPartAssign, http.MethodPost)
		r.HandleFunc("/api/admin/parts/:partID/status", s.handlePostPartStatus, http.MethodPost)

		r.HandleFunc("/api/admin/donations", s.handleGetDonations, http.MethodGet)
	})
}

func (s *Service) organizerFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	if !ok {
		return "", fmt.Errorf("user id not found in context")
	}
	return userID, nil
}
