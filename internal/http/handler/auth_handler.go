package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/tamojuntogames/accounts-api/internal/http/response"
	"github.com/tamojuntogames/accounts-api/internal/observability"
	"github.com/tamojuntogames/accounts-api/internal/service"
)

type AuthHandler struct {
	authSvc service.AuthServiceInterface
}

func NewAuthHandler(authSvc service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		status = "failure"
		observability.RecordAuthLogin(r.Context(), "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	result, err := h.authSvc.Login(r.Context(), body.Email, body.Password, clientIP(r))
	if err != nil {
		status = "failure"
		var throttled *service.ThrottledError
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			observability.Audit(r, observability.AuditInput{
				EventName: "auth.login.failed", TargetType: "user", Action: "login",
				Outcome: "failure", Reason: "missing_credentials",
			})
			observability.RecordAuthLogin(r.Context(), "failure")
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.As(err, &throttled):
			observability.Audit(r, observability.AuditInput{
				EventName: "auth.login.throttled", TargetType: "user", Action: "login",
				Outcome: "throttled", Reason: "abuse_guard_cooldown",
			})
			observability.RecordAuthLogin(r.Context(), "throttled")
			w.Header().Set("Retry-After", retryAfterSeconds(throttled.RetryAfter))
			response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many failed login attempts", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			observability.Audit(r, observability.AuditInput{
				EventName: "auth.login.failed", TargetType: "user", Action: "login",
				Outcome: "failure", Reason: "invalid_credentials",
			})
			observability.RecordAuthLogin(r.Context(), "failure")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
		default:
			observability.RecordAuthLogin(r.Context(), "failure")
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed", nil)
		}
		return
	}

	observability.Audit(r, observability.AuditInput{
		EventName: "auth.login.success", ActorUserID: formatUserID(result.User.ID),
		TargetType: "user", TargetID: formatUserID(result.User.ID),
		Action: "login", Outcome: "success", Reason: "credentials_valid",
	})
	observability.RecordAuthLogin(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, result)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}
