package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tamojuntogames/accounts-api/internal/http/middleware"
	"github.com/tamojuntogames/accounts-api/internal/http/response"
	"github.com/tamojuntogames/accounts-api/internal/observability"
	"github.com/tamojuntogames/accounts-api/internal/repository"
	"github.com/tamojuntogames/accounts-api/internal/service"
)

type UserHandler struct {
	userSvc service.UserServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

type createUserRequest struct {
	FullName        string     `json:"full_name"`
	Nickname        string     `json:"nickname"`
	Email           string     `json:"email"`
	ConfirmEmail    string     `json:"confirm_email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirm_password"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	Gender          string     `json:"gender,omitempty"`
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	u, err := h.userSvc.Create(r.Context(), service.CreateUserInput{
		FullName:        body.FullName,
		Nickname:        body.Nickname,
		Email:           body.Email,
		ConfirmEmail:    body.ConfirmEmail,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
		BirthDate:       body.BirthDate,
		Gender:          body.Gender,
	})
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	observability.Audit(r, observability.AuditInput{
		EventName: "user.create.success", ActorUserID: formatUserID(u.ID),
		TargetType: "user", TargetID: formatUserID(u.ID),
		Action: "create", Outcome: "success", Reason: "registered",
	})
	response.JSON(w, r, http.StatusCreated, u)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	u, err := h.userSvc.GetByID(r.Context(), id)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context())
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, users)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	var body updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	u, err := h.userSvc.Update(r.Context(), id, service.UpdateUserInput{
		FullName: body.FullName,
		Nickname: body.Nickname,
		Email:    body.Email,
	})
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{
		EventName: "user.update.success", ActorUserID: actorID(r),
		TargetType: "user", TargetID: formatUserID(u.ID),
		Action: "update", Outcome: "success", Reason: "profile_changed",
	})
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	if err := h.userSvc.Delete(r.Context(), id); err != nil {
		writeUserError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{
		EventName: "user.delete.success", ActorUserID: actorID(r),
		TargetType: "user", TargetID: formatUserID(id),
		Action: "delete", Outcome: "success", Reason: "account_removed",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	id, err := claims.UserID()
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user", nil)
		return
	}
	u, err := h.userSvc.GetByID(r.Context(), id)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrFullNameRequired),
		errors.Is(err, service.ErrNicknameRequired),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrEmailsDoNotMatch),
		errors.Is(err, service.ErrPasswordsDoNotMatch),
		errors.Is(err, service.ErrPasswordTooShort):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}

func pathUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id64, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id64 == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return 0, false
	}
	return uint(id64), true
}

func formatUserID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func actorID(r *http.Request) string {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	id, err := claims.UserID()
	if err != nil {
		return ""
	}
	return formatUserID(id)
}
