package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"health-chatbot/internal/agent"
	"health-chatbot/internal/metrics"
	"health-chatbot/internal/upload"
)

// Analyzer produces the mock medical advice stored with each consultation.
type Analyzer interface {
	AnalyzeSymptoms(symptoms string) string
	AnalyzeImage(imagePath string) agent.ImageAnalysis
}

// Publisher hands domain events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// ReportService alerts a doctor about a consultation.
type ReportService interface {
	SendDoctorReport(ctx context.Context, c Consultation) error
}

type Service interface {
	CreateSymptomConsultation(ctx context.Context, userID int64, symptoms string) (*Consultation, error)
	CreateImageConsultation(ctx context.Context, userID int64, data []byte, filename string) (*Consultation, error)
	HistoryFor(ctx context.Context, userID int64) ([]Consultation, error)
	Get(ctx context.Context, userID, id int64) (*Consultation, error)
}

// CreatedEvent is published after a consultation is stored.
type CreatedEvent struct {
	ConsultationID int64     `json:"consultationId"`
	UserID         int64     `json:"userId"`
	Type           Kind      `json:"consultationType"`
	Seriousness    string    `json:"seriousnessRating,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type service struct {
	repo      Repository
	analyzer  Analyzer
	files     upload.Store
	events    Publisher
	reportSvc ReportService
	now       func() time.Time
	logger    logrus.FieldLogger
}

type Option func(*service)

func WithPublisher(p Publisher) Option {
	return func(s *service) { s.events = p }
}

// WithReportService enables doctor alerts for high seriousness images.
func WithReportService(r ReportService) Option {
	return func(s *service) { s.reportSvc = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, analyzer Analyzer, files upload.Store, logger logrus.FieldLogger, opts ...Option) Service {
	s := &service{
		repo:     repo,
		analyzer: analyzer,
		files:    files,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateSymptomConsultation(ctx context.Context, userID int64, symptoms string) (*Consultation, error) {
	prescription := s.analyzer.AnalyzeSymptoms(symptoms)

	c := NewSymptomConsultation(userID, symptoms, prescription, s.timestamp())
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}

	s.afterCreate(ctx, c)
	return &c, nil
}

func (s *service) CreateImageConsultation(ctx context.Context, userID int64, data []byte, filename string) (*Consultation, error) {
	path, err := s.files.Save(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	analysis := s.analyzer.AnalyzeImage(path)

	c := NewImageConsultation(userID, path, analysis, s.timestamp())
	if err := c.Validate(); err != nil {
		s.discard(path)
		return nil, err
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		s.discard(path)
		return nil, err
	}

	s.afterCreate(ctx, c)

	if c.Image.Seriousness == agent.SeriousnessHigh && s.reportSvc != nil {
		err := s.reportSvc.SendDoctorReport(ctx, c)
		metrics.RecordDoctorAlert(err)
		if err != nil {
			s.logger.WithError(err).WithField("consultation_id", c.ID).Warn("doctor alert failed")
		}
	}
	return &c, nil
}

func (s *service) HistoryFor(ctx context.Context, userID int64) ([]Consultation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get hides consultations owned by other users behind ErrNotFound.
func (s *service) Get(ctx context.Context, userID, id int64) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// discard removes a file whose consultation row was never written.
func (s *service) discard(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.files.Remove(ctx, path); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("failed to remove orphaned upload")
	}
}

func (s *service) afterCreate(ctx context.Context, c Consultation) {
	var seriousness string
	if c.Image != nil {
		seriousness = string(c.Image.Seriousness)
	}
	metrics.RecordConsultation(string(c.Kind), seriousness)

	s.logger.WithFields(logrus.Fields{
		"consultation_id": c.ID,
		"user_id":         c.UserID,
		"type":            c.Kind,
	}).Info("consultation created")

	if s.events == nil {
		return
	}
	event := CreatedEvent{
		ConsultationID: c.ID,
		UserID:         c.UserID,
		Type:           c.Kind,
		Seriousness:    seriousness,
		CreatedAt:      c.CreatedAt,
	}
	if err := s.events.Publish(ctx, fmt.Sprint(c.UserID), event); err != nil {
		s.logger.WithError(err).WithField("consultation_id", c.ID).Warn("failed to publish consultation event")
	}
}
