// Package recovery handles volunteer e-mail and password sign-in, including
// password recovery through short-lived numeric codes.
package recovery

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeLength   = 6
	alertTimeout = 30 * time.Second
)

type ContributorStore interface {
	ContributorByEmail(ctx context.Context, email string) (*types.Contributor, error)
	SetPassword(ctx context.Context, contributorID, hash string) error
	SetResetCode(ctx context.Context, contributorID, code string, expiresAt time.Time) error
	IncrementResetAttempts(ctx context.Context, contributorID string) (int, error)
}

type Notifier interface {
	ResetCode(ctx context.Context, contributor *types.Contributor, code string) error
	AdminAlert(ctx context.Context, source, detail string, extra map[string]any) error
}

type Service struct {
	logger       *logrus.Logger
	contributors ContributorStore
	notifier     Notifier

	codeTTL     time.Duration
	maxAttempts int
	minPassword int
	cost        int

	now      func() time.Time
	newCode  func() (string, error)
	inflight sync.WaitGroup
}

func NewService(config *types.Config, logger *logrus.Logger, contributors ContributorStore, notifier Notifier) *Service {
	return &Service{
		logger:       logger,
		contributors: contributors,
		notifier:     notifier,
		codeTTL:      time.Duration(config.ResetCodeTTLMin) * time.Minute,
		maxAttempts:  config.ResetCodeMaxAttempts,
		minPassword:  config.MinPasswordLength,
		cost:         bcrypt.DefaultCost,
		now:          time.Now,
		newCode:      func() (string, error) { return utils.NumericCode(codeLength) },
	}
}

// Wait blocks until every admin alert started by Handle has been sent.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func fail(message string) types.AuthResponse {
	return types.AuthResponse{OK: false, Error: message}
}

// Handle runs one credential action. Failures are reported in the response
// body, never as an error, so callers can always show the message.
func (s *Service) Handle(ctx context.Context, req types.AuthRequest) types.AuthResponse {
	email := utils.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fail("Email inválido.")
	}

	contributor, err := s.contributors.ContributorByEmail(ctx, email)
	if errors.Is(err, types.ErrContributorNotFound) {
		return fail("Não encontrámos nenhum voluntário com esse email.")
	}
	if err != nil {
		s.alert(ctx, "Erro na query à BD", "Falha ao procurar contributor por email", map[string]any{"email": email, "error": err.Error()})
		return fail("Erro interno. Tente novamente.")
	}

	switch req.Action {
	case types.AuthActionCheck:
		return s.check(contributor)
	case types.AuthActionSetPassword:
		return s.setPassword(ctx, contributor, req.Password)
	case types.AuthActionLogin:
		return s.login(ctx, contributor, req.Password)
	case types.AuthActionRequestReset:
		return s.requestReset(ctx, contributor)
	case types.AuthActionVerifyCode:
		return s.verifyCode(ctx, contributor, req.Code)
	case types.AuthActionResetPassword:
		return s.resetPassword(ctx, contributor, req.Code, req.NewPassword)
	}

	return fail("Ação inválida.")
}

func (s *Service) check(c *types.Contributor) types.AuthResponse {
	return types.AuthResponse{
		OK:          true,
		Exists:      utils.BoolPtr(true),
		HasPassword: utils.BoolPtr(c.HasPassword()),
		Name:        c.Name,
	}
}

func (s *Service) passwordTooShort() types.AuthResponse {
	return fail(fmt.Sprintf("A password deve ter pelo menos %d caracteres.", s.minPassword))
}

func (s *Service) setPassword(ctx context.Context, c *types.Contributor, password string) types.AuthResponse {
	if c.HasPassword() {
		return fail("Já tem uma password definida. Use a recuperação de password para a alterar.")
	}
	if len([]rune(password)) < s.minPassword {
		return s.passwordTooShort()
	}

	if err := s.storePassword(ctx, c, password); err != nil {
		s.alert(ctx, "Erro ao guardar password", "Falha no UPDATE de password_hash", map[string]any{"contributor_id": c.ID, "error": err.Error()})
		return fail("Erro ao guardar password.")
	}

	return types.AuthResponse{OK: true, Token: c.Token}
}

func (s *Service) login(ctx context.Context, c *types.Contributor, password string) types.AuthResponse {
	if password == "" {
		return fail("Introduza a sua password.")
	}
	if !c.HasPassword() {
		return fail("Ainda não definiu password. Por favor defina uma.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*c.PasswordHash), []byte(password)); err != nil {
		s.alert(ctx, "Password incorreta no login", "O voluntário tentou fazer login mas a password não corresponde.", map[string]any{"email": c.Email, "name": c.Name})
		return fail("Password incorreta.")
	}

	return types.AuthResponse{OK: true, Token: c.Token}
}

func (s *Service) requestReset(ctx context.Context, c *types.Contributor) types.AuthResponse {
	code, err := s.newCode()
	if err != nil {
		s.alert(ctx, "Erro ao gerar código de recuperação", "Falha ao gerar código aleatório", map[string]any{"contributor_id": c.ID, "error": err.Error()})
		return fail("Erro ao gerar código. Tente novamente.")
	}

	if err := s.contributors.SetResetCode(ctx, c.ID, code, s.now().Add(s.codeTTL)); err != nil {
		s.alert(ctx, "Erro ao gerar código de recuperação", "Falha no UPDATE de reset_code", map[string]any{"contributor_id": c.ID, "error": err.Error()})
		return fail("Erro ao gerar código. Tente novamente.")
	}

	if err := s.notifier.ResetCode(ctx, c, code); err != nil {
		s.alert(ctx, "Erro ao enviar email de recuperação", "Falha no envio de email", map[string]any{"email": c.Email, "error": err.Error()})
		return fail("Erro ao enviar email. Tente novamente.")
	}

	s.logger.WithField("contributor_id", c.ID).Info("reset code sent")

	return types.AuthResponse{OK: true, CodeSent: true}
}

func (s *Service) verifyCode(ctx context.Context, c *types.Contributor, code string) types.AuthResponse {
	code = strings.TrimSpace(code)
	if len(code) != codeLength {
		return fail("Código inválido. Deve ter 6 dígitos.")
	}
	if c.ResetCode == nil || c.ResetCodeExpiresAt == nil {
		return fail("Nenhum código de recuperação ativo. Solicite um novo código.")
	}
	if c.ResetCodeExpiresAt.Before(s.now()) {
		return fail("Código expirado. Solicite um novo código.")
	}
	if c.ResetCodeAttempts >= s.maxAttempts {
		return fail("Excedeu o limite de tentativas. Solicite um novo código.")
	}

	if !sameCode(code, *c.ResetCode) {
		attempts, err := s.contributors.IncrementResetAttempts(ctx, c.ID)
		if err != nil {
			s.logger.WithError(err).WithField("contributor_id", c.ID).Error("failed to record reset code attempt")
			attempts = c.ResetCodeAttempts + 1
		}

		remaining := s.maxAttempts - attempts
		resp := fail("Código incorreto. Excedeu o limite de tentativas. Solicite um novo código.")
		if remaining > 0 {
			word := "tentativas"
			if remaining == 1 {
				word = "tentativa"
			}
			resp = fail(fmt.Sprintf("Código incorreto. Tem mais %d %s.", remaining, word))
		} else {
			remaining = 0
		}
		resp.AttemptsRemaining = utils.IntPtr(remaining)
		return resp
	}

	return types.AuthResponse{OK: true, CodeValid: true}
}

func (s *Service) resetPassword(ctx context.Context, c *types.Contributor, code, newPassword string) types.AuthResponse {
	code = strings.TrimSpace(code)
	if len(code) != codeLength {
		return fail("Código inválido.")
	}
	if len([]rune(newPassword)) < s.minPassword {
		return s.passwordTooShort()
	}
	if c.ResetCode == nil || c.ResetCodeExpiresAt == nil {
		return fail("Nenhum código de recuperação ativo.")
	}
	if c.ResetCodeExpiresAt.Before(s.now()) || c.ResetCodeAttempts >= s.maxAttempts || !sameCode(code, *c.ResetCode) {
		return fail("Código inválido ou expirado.")
	}

	// SetPassword also clears the reset code.
	if err := s.storePassword(ctx, c, newPassword); err != nil {
		s.alert(ctx, "Erro ao redefinir password", "Falha no UPDATE de password após reset", map[string]any{"contributor_id": c.ID, "error": err.Error()})
		return fail("Erro ao guardar nova password.")
	}

	s.logger.WithField("contributor_id", c.ID).Info("password reset")

	return types.AuthResponse{OK: true, Token: c.Token}
}

func (s *Service) storePassword(ctx context.Context, c *types.Contributor, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.contributors.SetPassword(ctx, c.ID, string(hash))
}

func sameCode(given, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(stored)) == 1
}

// alert notifies the organizers in the background. The request context is
// detached so the alert outlives the response.
func (s *Service) alert(ctx context.Context, source, detail string, extra map[string]any) {
	entry := s.logger.WithField("alert", source)
	entry.WithFields(logrus.Fields(extra)).Warn(detail)

	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(ctx, alertTimeout)
		defer cancel()

		if err := s.notifier.AdminAlert(ctx, source, detail, extra); err != nil {
			entry.WithError(err).Error("failed to send admin alert")
		}
	}()
}
