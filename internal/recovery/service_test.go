package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"comproposito/internal/store/memstore"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

type alert struct {
	source string
	detail string
}

type fakeNotifier struct {
	mu       sync.Mutex
	codes    []string
	alerts   []alert
	resetErr error
}

func (n *fakeNotifier) ResetCode(_ context.Context, _ *types.Contributor, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.resetErr != nil {
		return n.resetErr
	}
	n.codes = append(n.codes, code)
	return nil
}

func (n *fakeNotifier) AdminAlert(_ context.Context, source, detail string, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert{source: source, detail: detail})
	return nil
}

type fixture struct {
	store       *memstore.Store
	notifier    *fakeNotifier
	svc         *Service
	now         time.Time
	contributor *types.Contributor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })

	logger, _ := test.NewNullLogger()
	f := &fixture{
		store:    memstore.New(),
		notifier: &fakeNotifier{},
		now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	config := &types.Config{ResetCodeTTLMin: 15, ResetCodeMaxAttempts: 3, MinPasswordLength: 4}
	f.svc = NewService(config, logger, f.store, f.notifier)
	f.svc.cost = bcrypt.MinCost
	f.svc.now = func() time.Time { return f.now }
	f.svc.newCode = func() (string, error) { return "123456", nil }
	t.Cleanup(f.svc.Wait)

	f.contributor = f.store.AddContributor(&types.Contributor{Name: "Ana Costa", Email: "ana@example.pt"})

	return f
}

func (f *fixture) handle(req types.AuthRequest) types.AuthResponse {
	if req.Email == "" {
		req.Email = f.contributor.Email
	}
	return f.svc.Handle(context.Background(), req)
}

func TestRejectsInvalidAndUnknownEmail(t *testing.T) {
	f := newFixture(t)

	resp := f.svc.Handle(context.Background(), types.AuthRequest{Action: types.AuthActionCheck, Email: "no-at-sign"})
	assert.False(t, resp.OK)
	assert.Equal(t, "Email inválido.", resp.Error)

	resp = f.svc.Handle(context.Background(), types.AuthRequest{Action: types.AuthActionCheck, Email: "ghost@example.pt"})
	assert.False(t, resp.OK)
	assert.Equal(t, "Não encontrámos nenhum voluntário com esse email.", resp.Error)
}

func TestCheckNormalizesEmail(t *testing.T) {
	f := newFixture(t)

	resp := f.handle(types.AuthRequest{Action: types.AuthActionCheck, Email: "  ANA@Example.PT "})
	require.True(t, resp.OK, resp.Error)
	assert.True(t, *resp.Exists)
	assert.False(t, *resp.HasPassword)
	assert.Equal(t, "Ana Costa", resp.Name)
}

func TestSetPasswordThenLogin(t *testing.T) {
	f := newFixture(t)

	resp := f.handle(types.AuthRequest{Action: types.AuthActionSetPassword, Password: "abc"})
	assert.False(t, resp.OK)
	assert.Equal(t, "A password deve ter pelo menos 4 caracteres.", resp.Error)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionSetPassword, Password: "abcd"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, f.contributor.Token, resp.Token)
	assert.NotEqual(t, "abcd", *f.store.ContributorRows[f.contributor.ID].PasswordHash)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionCheck})
	assert.True(t, *resp.HasPassword)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionLogin, Password: "abcd"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, f.contributor.Token, resp.Token)

	// a second set-password must go through recovery
	resp = f.handle(types.AuthRequest{Action: types.AuthActionSetPassword, Password: "hijacked"})
	assert.False(t, resp.OK)
	resp = f.handle(types.AuthRequest{Action: types.AuthActionLogin, Password: "abcd"})
	assert.True(t, resp.OK)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)

	resp := f.handle(types.AuthRequest{Action: types.AuthActionLogin})
	assert.Equal(t, "Introduza a sua password.", resp.Error)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionLogin, Password: "abcd"})
	assert.Equal(t, "Ainda não definiu password. Por favor defina uma.", resp.Error)

	require.True(t, f.handle(types.AuthRequest{Action: types.AuthActionSetPassword, Password: "abcd"}).OK)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionLogin, Password: "wrong"})
	assert.False(t, resp.OK)
	assert.Equal(t, "Password incorreta.", resp.Error)
	assert.Empty(t, resp.Token)

	f.svc.Wait()
	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, "Password incorreta no login", f.notifier.alerts[0].source)
}

func TestRecoveryFlow(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.handle(types.AuthRequest{Action: types.AuthActionSetPassword, Password: "old-pass"}).OK)

	resp := f.handle(types.AuthRequest{Action: types.AuthActionRequestReset})
	require.True(t, resp.OK, resp.Error)
	assert.True(t, resp.CodeSent)
	assert.Equal(t, []string{"123456"}, f.notifier.codes)

	stored := f.store.ContributorRows[f.contributor.ID]
	require.NotNil(t, stored.ResetCodeExpiresAt)
	assert.Equal(t, f.now.Add(15*time.Minute), *stored.ResetCodeExpiresAt)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: " 123456 "})
	require.True(t, resp.OK, resp.Error)
	assert.True(t, resp.CodeValid)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionResetPassword, Code: "123456", NewPassword: "new-pass"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, f.contributor.Token, resp.Token)

	assert.Nil(t, stored.ResetCode)
	assert.Zero(t, stored.ResetCodeAttempts)

	assert.False(t, f.handle(types.AuthRequest{Action: types.AuthActionLogin, Password: "old-pass"}).OK)
	assert.True(t, f.handle(types.AuthRequest{Action: types.AuthActionLogin, Password: "new-pass"}).OK)

	// the code is single use
	resp = f.handle(types.AuthRequest{Action: types.AuthActionResetPassword, Code: "123456", NewPassword: "again"})
	assert.Equal(t, "Nenhum código de recuperação ativo.", resp.Error)
}

func TestVerifyCodeLocksAfterThreeWrongAttempts(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.handle(types.AuthRequest{Action: types.AuthActionRequestReset}).OK)

	resp := f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "000000"})
	assert.Equal(t, "Código incorreto. Tem mais 2 tentativas.", resp.Error)
	assert.Equal(t, 2, *resp.AttemptsRemaining)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "000000"})
	assert.Equal(t, "Código incorreto. Tem mais 1 tentativa.", resp.Error)
	assert.Equal(t, 1, *resp.AttemptsRemaining)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "000000"})
	assert.Equal(t, "Código incorreto. Excedeu o limite de tentativas. Solicite um novo código.", resp.Error)
	assert.Equal(t, 0, *resp.AttemptsRemaining)

	// even the right code is refused now
	resp = f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "123456"})
	assert.Equal(t, "Excedeu o limite de tentativas. Solicite um novo código.", resp.Error)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionResetPassword, Code: "123456", NewPassword: "new-pass"})
	assert.Equal(t, "Código inválido ou expirado.", resp.Error)

	// a fresh code resets the counter
	require.True(t, f.handle(types.AuthRequest{Action: types.AuthActionRequestReset}).OK)
	assert.True(t, f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "123456"}).OK)
}

func TestVerifyCodeExpiry(t *testing.T) {
	f := newFixture(t)

	resp := f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "123456"})
	assert.Equal(t, "Nenhum código de recuperação ativo. Solicite um novo código.", resp.Error)

	require.True(t, f.handle(types.AuthRequest{Action: types.AuthActionRequestReset}).OK)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "12345"})
	assert.Equal(t, "Código inválido. Deve ter 6 dígitos.", resp.Error)

	f.now = f.now.Add(15*time.Minute + time.Second)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionVerifyCode, Code: "123456"})
	assert.Equal(t, "Código expirado. Solicite um novo código.", resp.Error)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionResetPassword, Code: "123456", NewPassword: "new-pass"})
	assert.Equal(t, "Código inválido ou expirado.", resp.Error)
}

func TestResetPasswordValidation(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.handle(types.AuthRequest{Action: types.AuthActionRequestReset}).OK)

	resp := f.handle(types.AuthRequest{Action: types.AuthActionResetPassword, Code: "1", NewPassword: "new-pass"})
	assert.Equal(t, "Código inválido.", resp.Error)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionResetPassword, Code: "123456", NewPassword: "abc"})
	assert.Equal(t, "A password deve ter pelo menos 4 caracteres.", resp.Error)

	resp = f.handle(types.AuthRequest{Action: types.AuthActionResetPassword, Code: "654321", NewPassword: "new-pass"})
	assert.Equal(t, "Código inválido ou expirado.", resp.Error)
}

func TestDeliveryFailureRaisesAlert(t *testing.T) {
	f := newFixture(t)
	f.notifier.resetErr = types.ErrDeliveryFailed

	resp := f.handle(types.AuthRequest{Action: types.AuthActionRequestReset})
	assert.False(t, resp.OK)
	assert.Equal(t, "Erro ao enviar email. Tente novamente.", resp.Error)

	f.svc.Wait()
	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, "Erro ao enviar email de recuperação", f.notifier.alerts[0].source)
}

func TestLookupFailureRaisesAlert(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("ContributorByEmail", errors.New("connection refused"))

	resp := f.handle(types.AuthRequest{Action: types.AuthActionCheck})
	assert.False(t, resp.OK)
	assert.Equal(t, "Erro interno. Tente novamente.", resp.Error)

	f.svc.Wait()
	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, "Erro na query à BD", f.notifier.alerts[0].source)
}

func TestUnknownAction(t *testing.T) {
	f := newFixture(t)

	resp := f.handle(types.AuthRequest{Action: "delete-account"})
	assert.False(t, resp.OK)
	assert.Equal(t, "Ação inválida.", resp.Error)
}
