package types

type AuthAction string

const (
	AuthActionCheck         AuthAction = "check"
	AuthActionSetPassword   AuthAction = "set-password"
	AuthActionLogin         AuthAction = "login"
	AuthActionRequestReset  AuthAction = "request-reset"
	AuthActionVerifyCode    AuthAction = "verify-code"
	AuthActionResetPassword AuthAction = "reset-password"
)

// AuthRequest is the volunteer credential payload.
type AuthRequest struct {
	Action      AuthAction `json:"action"`
	Email       string     `json:"email"`
	Password    string     `json:"password,omitempty"`
	Code        string     `json:"code,omitempty"`
	NewPassword string     `json:"new_password,omitempty"`
}

// AuthResponse always carries OK and, on failure, a user-facing Error.
type AuthResponse struct {
	OK                bool   `json:"ok"`
	Error             string `json:"error,omitempty"`
	Exists            *bool  `json:"exists,omitempty"`
	HasPassword       *bool  `json:"has_password,omitempty"`
	Name              string `json:"name,omitempty"`
	Token             string `json:"token,omitempty"`
	CodeSent          bool   `json:"code_sent,omitempty"`
	CodeValid         bool   `json:"code_valid,omitempty"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
}

// NotifyResult is returned by the e-mail functions.
type NotifyResult struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"messageId,omitempty"`
}
