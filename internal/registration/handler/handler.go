// Package handler exposes the registration wizard over HTTP. Handlers stay
// thin: decode, delegate to the registration service, translate the result.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"membergate/internal/platform/middleware"
	"membergate/internal/registration"
	"membergate/internal/transport/http/shared"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/requestcontext"
)

// Service defines the wizard operations the transport needs.
type Service interface {
	Start(ctx context.Context) (registration.StartResult, error)
	SubmitPhone(ctx context.Context, regID, phone string) (registration.PhoneResult, error)
	SubmitCode(ctx context.Context, regID, code string) (registration.CodeResult, error)
	SubmitProfile(ctx context.Context, regID string, profile registration.Profile) (registration.ProfileResult, error)
	Status(ctx context.Context, regID string) (registration.Status, error)
}

// Handler handles registration wizard endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Service
	sessions middleware.SessionValidator
}

// New creates a registration Handler.
func New(service Service, sessions middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
	}
}

// Register mounts the wizard routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleStart)
	r.Get("/register/{id}", h.handleStatus)
	r.Post("/register/{id}/phone", h.handleSubmitPhone)
	r.Post("/register/{id}/code", h.handleSubmitCode)
	r.With(middleware.RequireSession(h.sessions, h.logger)).
		Post("/register/{id}/profile", h.handleSubmitProfile)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.Start(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "start registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, result)
}

type submitPhoneRequest struct {
	Phone string `json:"phone"`
}

func (h *Handler) handleSubmitPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.SubmitPhone(ctx, chi.URLParam(r, "id"), req.Phone)
	if err != nil {
		h.logError(ctx, "submit phone failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, result)
}

type submitCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleSubmitCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.SubmitCode(ctx, chi.URLParam(r, "id"), req.Code)
	if err != nil {
		h.logError(ctx, "submit code failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

type submitProfileRequest struct {
	Title        string            `json:"title"`
	Gender       string            `json:"gender"`
	Surname      string            `json:"surname"`
	FirstName    string            `json:"first_name"`
	City         string            `json:"city"`
	DOB          registration.Date `json:"dob"`
	Organization string            `json:"organization"`
}

func (h *Handler) handleSubmitProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.SubmitProfile(ctx, chi.URLParam(r, "id"), registration.Profile{
		Title:        req.Title,
		Gender:       req.Gender,
		Surname:      req.Surname,
		FirstName:    req.FirstName,
		City:         req.City,
		DOB:          req.DOB,
		Organization: req.Organization,
	})
	if err != nil {
		h.logError(ctx, "submit profile failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.service.Status(ctx, chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeUnavailable:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
}
