package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"health-chatbot/internal/auth"
	"health-chatbot/internal/platform/httpx"
	"health-chatbot/internal/user"
)

// UserResolver maps the authenticated username to the stored account.
type UserResolver interface {
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

// ReportRenderer builds the downloadable PDF for a consultation.
type ReportRenderer interface {
	RenderPDF(c Consultation, owner string) ([]byte, error)
}

type Handler struct {
	svc      Service
	users    UserResolver
	reports  ReportRenderer
	validate *validator.Validate
	maxBytes int64
	logger   logrus.FieldLogger
}

func NewHandler(svc Service, users UserResolver, reports ReportRenderer, maxUploadBytes int64, logger logrus.FieldLogger) *Handler {
	return &Handler{
		svc:      svc,
		users:    users,
		reports:  reports,
		validate: validator.New(),
		maxBytes: maxUploadBytes,
		logger:   logger,
	}
}

// MaxSymptomsLength bounds the free-text symptom description, in characters.
const MaxSymptomsLength = 10000

// SymptomRequest allows empty symptoms; the engine answers those with a prompt
// for more detail.
type SymptomRequest struct {
	Symptoms string `json:"symptoms" validate:"max=10000"`
}

// DTO is the wire form of a Consultation. Fields of the other kind are null.
type DTO struct {
	ID                     int64     `json:"id"`
	Symptoms               *string   `json:"symptoms"`
	PrescriptionSuggestion *string   `json:"prescriptionSuggestion"`
	ImagePath              *string   `json:"imagePath"`
	AnalysisResult         *string   `json:"analysisResult"`
	SeriousnessRating      *string   `json:"seriousnessRating"`
	ConsultationType       Kind      `json:"consultationType"`
	CreatedAt              time.Time `json:"createdAt"`
}

func ToDTO(c Consultation) DTO {
	cols := c.columns()
	return DTO{
		ID:                     c.ID,
		Symptoms:               cols.symptoms,
		PrescriptionSuggestion: cols.prescription,
		ImagePath:              cols.imagePath,
		AnalysisResult:         cols.analysis,
		SeriousnessRating:      cols.seriousness,
		ConsultationType:       c.Kind,
		CreatedAt:              c.CreatedAt,
	}
}

func (h *Handler) CreateSymptoms(w http.ResponseWriter, r *http.Request) {
	u, ok := h.actingUser(w, r)
	if !ok {
		return
	}

	var req SymptomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, fmt.Sprintf("symptoms must be at most %d characters", MaxSymptomsLength))
		return
	}

	c, err := h.svc.CreateSymptomConsultation(r.Context(), u.ID, req.Symptoms)
	if err != nil {
		h.internalError(w, err, "failed to create symptom consultation")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToDTO(*c))
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	u, ok := h.actingUser(w, r)
	if !ok {
		return
	}

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.internalError(w, err, "failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	c, err := h.svc.CreateImageConsultation(r.Context(), u.ID, data, header.Filename)
	if err != nil {
		h.internalError(w, err, "failed to create image consultation")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToDTO(*c))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	u, ok := h.actingUser(w, r)
	if !ok {
		return
	}

	list, err := h.svc.HistoryFor(r.Context(), u.ID)
	if err != nil {
		h.internalError(w, err, "failed to load history")
		return
	}

	out := make([]DTO, 0, len(list))
	for _, c := range list {
		out = append(out, ToDTO(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	u, ok := h.actingUser(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "consultation not found")
		return
	}

	c, err := h.svc.Get(r.Context(), u.ID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "consultation not found")
			return
		}
		h.internalError(w, err, "failed to load consultation")
		return
	}

	pdf, err := h.reports.RenderPDF(*c, u.Username)
	if err != nil {
		h.internalError(w, err, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="consultation_%d.pdf"`, c.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// actingUser resolves the authenticated account, writing the error response
// itself when it cannot.
func (h *Handler) actingUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	username, err := auth.UsernameFromContext(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	u, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		// A valid token for a missing account should never happen.
		h.internalError(w, err, "failed to resolve authenticated user")
		return nil, false
	}
	return u, true
}

func (h *Handler) internalError(w http.ResponseWriter, err error, msg string) {
	h.logger.WithError(err).Error(msg)
	httpx.WriteInternalError(w)
}

// RegisterRoutes mounts the consultation API. Callers wrap r with the auth
// middleware.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/consultations/symptoms", h.CreateSymptoms)
	r.Post("/consultations/image", h.UploadImage)
	r.Get("/consultations/history", h.History)
	r.Get("/consultations/{id}/report", h.Report)
}
