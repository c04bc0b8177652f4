package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"health-chatbot/internal/metrics"
	"health-chatbot/internal/platform/httpx"
)

const passwordTooLongMessage = "password must be at most 72 bytes"

type Handler struct {
	svc      Service
	validate *validator.Validate
	logger   logrus.FieldLogger
}

func NewHandler(svc Service, logger logrus.FieldLogger) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: "Invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := h.validate.Struct(req); err != nil {
		metrics.RecordAuth("signup", "invalid")
		httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: validationMessage(err)})
		return
	}
	// max counts runes; bcrypt limits bytes.
	if len(req.Password) > MaxPasswordBytes {
		metrics.RecordAuth("signup", "invalid")
		httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: passwordTooLongMessage})
		return
	}

	if _, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			metrics.RecordAuth("signup", "duplicate")
			httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: "Username already exists"})
		case errors.Is(err, ErrDuplicateEmail):
			metrics.RecordAuth("signup", "duplicate")
			httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: "Email already exists"})
		case errors.Is(err, ErrPasswordTooLong):
			metrics.RecordAuth("signup", "invalid")
			httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: passwordTooLongMessage})
		default:
			h.logger.WithError(err).Error("signup failed")
			httpx.WriteInternalError(w)
		}
		return
	}

	token, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.WithError(err).Error("login after signup failed")
		httpx.WriteInternalError(w)
		return
	}

	metrics.RecordAuth("signup", "success")
	httpx.WriteJSON(w, http.StatusOK, AuthResponse{
		Token:    token,
		Username: req.Username,
		Message:  "Signup successful",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: "Invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validate.Struct(req); err != nil {
		metrics.RecordAuth("login", "invalid")
		httpx.WriteJSON(w, http.StatusBadRequest, AuthResponse{Message: validationMessage(err)})
		return
	}

	token, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.RecordAuth("login", "rejected")
			httpx.WriteJSON(w, http.StatusUnauthorized, AuthResponse{Message: "Invalid username or password"})
			return
		}
		h.logger.WithError(err).Error("login failed")
		httpx.WriteInternalError(w)
		return
	}

	metrics.RecordAuth("login", "success")
	httpx.WriteJSON(w, http.StatusOK, AuthResponse{
		Token:    token,
		Username: req.Username,
		Message:  "Login successful",
	})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "email must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
}
