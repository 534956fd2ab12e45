package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.Cognito.InitiateAuth(r.Context(), &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": input.Email,
			"PASSWORD": input.Password,
		},
	})
	if err != nil {
		status, msg := mapCognitoLoginError(err)
		s.logger.WithError(err).WithField("status", status).Warn("organizer login failed")
		s.writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		// A challenge (new password, MFA) is outside this flow.
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "login requires an additional challenge"})
		return
	}

	accessToken := aws.ToString(resp.AuthenticationResult.AccessToken)
	maxAge := int(resp.AuthenticationResult.ExpiresIn)
	if maxAge <= 0 || maxAge > s.config.SessionMaxAgeSec {
		maxAge = s.config.SessionMaxAgeSec
	}

	encryptedToken, err := s.cookie.Encode(s.config.CookieName, accessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "login failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Path:     "/",
	})

	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"access_token": accessToken,
		"expires_in":   maxAge,
	})
}

func (s *Service) handlePostLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Service) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := s.organizerFromContext(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	email, _ := r.Context().Value(contextKeyEmail).(string)

	s.writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "email": email})
}

func mapCognitoLoginError(err error) (int, string) {
	var notAuthorized *ctypes.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return http.StatusUnauthorized, "invalid credentials"
	}

	var userNotFound *ctypes.UserNotFoundException
	if errors.As(err, &userNotFound) {
		return http.StatusUnauthorized, "invalid credentials"
	}

	var notConfirmed *ctypes.UserNotConfirmedException
	if errors.As(err, &notConfirmed) {
		return http.StatusForbidden, "account not confirmed"
	}

	var tooMany *ctypes.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return http.StatusTooManyRequests, "too many attempts, try again later"
	}

	return http.StatusBadGateway, "login unavailable"
}
