package consultation

import (
	"errors"
	"fmt"
	"time"

	"health-chatbot/internal/agent"
)

type Kind string

const (
	KindSymptom Kind = "SYMPTOM"
	KindImage   Kind = "IMAGE"
)

var ErrNotFound = errors.New("consultation not found")

type SymptomDetails struct {
	Symptoms               string
	PrescriptionSuggestion string
}

type ImageDetails struct {
	ImagePath      string
	AnalysisResult string
	Seriousness    agent.Seriousness
}

// Consultation is one symptom check or image analysis owned by a user.
// Exactly one of Symptom and Image is set, matching Kind.
type Consultation struct {
	ID        int64
	UserID    int64
	Kind      Kind
	Symptom   *SymptomDetails
	Image     *ImageDetails
	CreatedAt time.Time
}

func NewSymptomConsultation(userID int64, symptoms, prescription string, createdAt time.Time) Consultation {
	return Consultation{
		UserID:    userID,
		Kind:      KindSymptom,
		Symptom:   &SymptomDetails{Symptoms: symptoms, PrescriptionSuggestion: prescription},
		CreatedAt: createdAt,
	}
}

func NewImageConsultation(userID int64, imagePath string, analysis agent.ImageAnalysis, createdAt time.Time) Consultation {
	return Consultation{
		UserID: userID,
		Kind:   KindImage,
		Image: &ImageDetails{
			ImagePath:      imagePath,
			AnalysisResult: analysis.Text,
			Seriousness:    analysis.Seriousness,
		},
		CreatedAt: createdAt,
	}
}

func (c Consultation) Validate() error {
	switch c.Kind {
	case KindSymptom:
		if c.Symptom == nil || c.Image != nil {
			return errors.New("symptom consultation must carry only symptom details")
		}
	case KindImage:
		if c.Image == nil || c.Symptom != nil {
			return errors.New("image consultation must carry only image details")
		}
		if c.Image.ImagePath == "" {
			return errors.New("image consultation requires an image path")
		}
		if !c.Image.Seriousness.Valid() {
			return fmt.Errorf("invalid seriousness %q", c.Image.Seriousness)
		}
	default:
		return fmt.Errorf("unknown consultation kind %q", c.Kind)
	}
	if c.UserID == 0 {
		return errors.New("consultation requires an owner")
	}
	return nil
}

// columns flattens the details into the nullable table columns.
type columns struct {
	symptoms, prescription, imagePath, analysis, seriousness *string
}

func (c Consultation) columns() columns {
	var cols columns
	if s := c.Symptom; s != nil {
		cols.symptoms = &s.Symptoms
		cols.prescription = &s.PrescriptionSuggestion
	}
	if img := c.Image; img != nil {
		rating := string(img.Seriousness)
		cols.imagePath = &img.ImagePath
		cols.analysis = &img.AnalysisResult
		cols.seriousness = &rating
	}
	return cols
}

// fromRow rebuilds a Consultation from nullable columns.
func fromRow(id, userID int64, kind string, symptoms, prescription, imagePath, analysis, seriousness *string, createdAt time.Time) (Consultation, error) {
	c := Consultation{ID: id, UserID: userID, Kind: Kind(kind), CreatedAt: createdAt}

	switch c.Kind {
	case KindSymptom:
		c.Symptom = &SymptomDetails{Symptoms: deref(symptoms), PrescriptionSuggestion: deref(prescription)}
	case KindImage:
		c.Image = &ImageDetails{
			ImagePath:      deref(imagePath),
			AnalysisResult: deref(analysis),
			Seriousness:    agent.Seriousness(deref(seriousness)),
		}
	default:
		return Consultation{}, fmt.Errorf("consultation %d has unknown kind %q", id, kind)
	}
	return c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
