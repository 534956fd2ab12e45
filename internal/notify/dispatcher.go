// Package notify renders and sends the volunteer e-mails.
package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"comproposito/internal/mailer"
	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

type ContributorStore interface {
	Contributor(ctx context.Context, contributorID string) (*types.Contributor, error)
}

type PartStore interface {
	PartsWithProject(ctx context.Context, partIDs []string) ([]*types.PartWithProject, error)
}

type Dispatcher struct {
	logger       *logrus.Logger
	config       *types.Config
	contributors ContributorStore
	parts        PartStore
	sender       mailer.Sender
	templates    *template.Template
	now          func() time.Time
}

func New(config *types.Config, logger *logrus.Logger, contributors ContributorStore, parts PartStore, sender mailer.Sender) (*Dispatcher, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse e-mail templates: %w", err)
	}

	return &Dispatcher{
		logger:       logger,
		config:       config,
		contributors: contributors,
		parts:        parts,
		sender:       sender,
		templates:    templates,
		now:          time.Now,
	}, nil
}

// PortalURL builds the personal portal link for a token.
func (d *Dispatcher) PortalURL(token string) string {
	return fmt.Sprintf("%s/portal?token=%s", strings.TrimSuffix(d.config.PortalBaseURL, "/"), url.QueryEscape(token))
}

// reachable loads the contributor and rejects records that cannot receive e-mail.
func (d *Dispatcher) reachable(ctx context.Context, contributorID string) (*types.Contributor, error) {
	if strings.TrimSpace(contributorID) == "" {
		return nil, types.NewValidationError("contributor_id", "required")
	}

	contributor, err := d.contributors.Contributor(ctx, contributorID)
	if err != nil {
		return nil, err
	}

	if contributor.Email == "" || contributor.Token == "" {
		return nil, fmt.Errorf("contributor %s is missing email or token: %w", contributorID, types.ErrContributorNotFound)
	}

	return contributor, nil
}

type welcomeView struct {
	Name      string
	PortalURL string
}

// Welcome sends the onboarding e-mail with the volunteer's portal link.
func (d *Dispatcher) Welcome(ctx context.Context, contributorID string) (*types.NotifyResult, error) {
	contributor, err := d.reachable(ctx, contributorID)
	if err != nil {
		return nil, err
	}

	html, err := d.render("welcome", welcomeView{
		Name:      contributor.Name,
		PortalURL: d.PortalURL(contributor.Token),
	})
	if err != nil {
		return nil, err
	}

	return d.deliver(ctx, &mailer.Message{
		ToName:  contributor.Name,
		ToEmail: contributor.Email,
		Subject: "Bem-vindo ao 3D com Propósito!",
		HTML:    html,
	})
}

type partLine struct {
	PartName string
	Material string
	FileURL  string
}

type projectGroup struct {
	Name  string
	Parts []partLine
}

type allocationView struct {
	Name          string
	Count         int
	Projects      []projectGroup
	PortalURL     string
	MakerGuideURL string
	ModelFilesURL string
}

// PartAllocated tells a volunteer which parts were assigned to them.
func (d *Dispatcher) PartAllocated(ctx context.Context, contributorID string, partIDs []string) (*types.NotifyResult, error) {
	partIDs = utils.UniqueStrings(partIDs)
	if len(partIDs) == 0 {
		return nil, types.NewValidationError("part_ids", "required")
	}

	contributor, err := d.reachable(ctx, contributorID)
	if err != nil {
		return nil, err
	}

	parts, err := d.parts.PartsWithProject(ctx, partIDs)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, types.ErrPartNotFound
	}

	view := allocationView{
		Name:          contributor.Name,
		Count:         len(parts),
		Projects:      groupByProject(parts),
		PortalURL:     d.PortalURL(contributor.Token),
		MakerGuideURL: d.config.MakerGuideURL,
		ModelFilesURL: d.config.ModelFilesURL,
	}

	html, err := d.render("part_allocated", view)
	if err != nil {
		return nil, err
	}

	return d.deliver(ctx, &mailer.Message{
		ToName:  contributor.Name,
		ToEmail: contributor.Email,
		Subject: allocationSubject(len(parts)),
		HTML:    html,
	})
}

func allocationSubject(count int) string {
	if count == 1 {
		return "Foi-lhe atribuída uma peça - 3D com Propósito"
	}
	return fmt.Sprintf("Foram-lhe atribuídas %d peças - 3D com Propósito", count)
}

// groupByProject keeps the order in which projects first appear.
func groupByProject(parts []*types.PartWithProject) []projectGroup {
	index := make(map[string]int)
	groups := make([]projectGroup, 0)

	for _, p := range parts {
		i, ok := index[p.ProjectName]
		if !ok {
			i = len(groups)
			index[p.ProjectName] = i
			groups = append(groups, projectGroup{Name: p.ProjectName})
		}
		groups[i].Parts = append(groups[i].Parts, partLine{
			PartName: p.PartName,
			Material: utils.PtrString(p.Material),
			FileURL:  utils.PtrString(p.FileURL),
		})
	}

	return groups
}

type resetCodeView struct {
	Name        string
	Code        string
	TTLMinutes  int
	MaxAttempts int
}

// ResetCode e-mails a password recovery code.
func (d *Dispatcher) ResetCode(ctx context.Context, contributor *types.Contributor, code string) error {
	html, err := d.render("reset_code", resetCodeView{
		Name:        contributor.Name,
		Code:        code,
		TTLMinutes:  int(d.config.ResetCodeTTLMin),
		MaxAttempts: d.config.ResetCodeMaxAttempts,
	})
	if err != nil {
		return err
	}

	_, err = d.deliver(ctx, &mailer.Message{
		ToName:  contributor.Name,
		ToEmail: contributor.Email,
		Subject: "Código de Recuperação de Password - 3D com Propósito",
		HTML:    html,
	})
	return err
}

type adminAlertView struct {
	Context   string
	Detail    string
	Timestamp string
	Extra     string
}

// AdminAlert reports an operational failure to the configured admin inbox.
func (d *Dispatcher) AdminAlert(ctx context.Context, source, detail string, extra map[string]any) error {
	if d.config.AdminAlertEmail == "" {
		return nil
	}

	view := adminAlertView{
		Context:   source,
		Detail:    detail,
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}
	if len(extra) > 0 {
		data, err := json.MarshalIndent(extra, "", "  ")
		if err == nil {
			view.Extra = string(data)
		}
	}

	html, err := d.render("admin_alert", view)
	if err != nil {
		return err
	}

	_, err = d.deliver(ctx, &mailer.Message{
		ToEmail: d.config.AdminAlertEmail,
		Subject: "Erro no Login de Voluntário - " + source,
		HTML:    html,
	})
	return err
}

func (d *Dispatcher) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := d.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s e-mail: %w", name, err)
	}
	return buf.String(), nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg *mailer.Message) (*types.NotifyResult, error) {
	messageID, err := d.sender.Send(ctx, msg)
	if err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"to":      msg.ToEmail,
			"subject": msg.Subject,
		}).Error("failed to send e-mail")
		return nil, fmt.Errorf("%w: %w", types.ErrDeliveryFailed, err)
	}

	d.logger.WithFields(logrus.Fields{
		"to":         msg.ToEmail,
		"message_id": messageID,
	}).Info("e-mail sent")

	return &types.NotifyResult{OK: true, MessageID: messageID}, nil
}
