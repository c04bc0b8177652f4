package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"

	"health-chatbot/internal/consultation"
)

type TelegramClient interface {
	SendDocument(ctx context.Context, chatID int64, data []byte, fileName, caption string) error
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Service renders consultation PDFs and forwards urgent ones to a doctor.
type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	logger       logrus.FieldLogger
}

func NewService(tg TelegramClient, doctorChatID int64, logger logrus.FieldLogger) *Service {
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		logger:       logger,
	}
}

func (s *Service) SendDoctorReport(ctx context.Context, c consultation.Consultation) error {
	if s.tgClient == nil || s.doctorChatID == 0 {
		return fmt.Errorf("doctor alerts are not configured")
	}

	caption := fmt.Sprintf("%s consultation #%d needs review", seriousnessOf(c), c.ID)
	log := s.logger.WithFields(logrus.Fields{
		"consultation_id": c.ID,
		"chat_id":         s.doctorChatID,
	})

	pdf, err := s.RenderPDF(c, fmt.Sprintf("user #%d", c.UserID))
	if err == nil {
		log.Info("sending doctor report")
		err = s.tgClient.SendDocument(ctx, s.doctorChatID, pdf, fmt.Sprintf("report_%d.pdf", c.ID), caption)
		if err == nil {
			return nil
		}
	}

	// The doctor still gets the findings as plain text.
	log.WithError(err).Warn("doctor report document failed, sending text alert")
	if msgErr := s.tgClient.SendMessage(ctx, s.doctorChatID, caption+"\n\n"+summaryOf(c)); msgErr != nil {
		return fmt.Errorf("send doctor report: %w", errors.Join(err, msgErr))
	}
	return nil
}

// RenderPDF lays out a single page report using the core fonts, so no font
// files are needed at runtime.
func (s *Service) RenderPDF(c consultation.Consultation, owner string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(v string) string { return tr(latin1(v)) }

	pdf.SetTitle("Consultation report", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Health Consultation Report")
	pdf.Ln(14)

	field := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, text(value), "", "L", false)
	}
	section := func(title, body string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, title)
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, text(body), "", "L", false)
	}

	field("Consultation:", fmt.Sprintf("#%d", c.ID))
	field("Patient:", owner)
	field("Type:", string(c.Kind))
	field("Date:", c.CreatedAt.Format("02 Jan 2006 15:04 MST"))

	switch {
	case c.Symptom != nil:
		section("Reported symptoms", c.Symptom.Symptoms)
		section("Prescription suggestion", c.Symptom.PrescriptionSuggestion)
	case c.Image != nil:
		field("Image:", c.Image.ImagePath)
		field("Seriousness:", string(c.Image.Seriousness))
		section("Analysis", c.Image.AnalysisResult)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Generated by an automated assistant. Not a medical diagnosis.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// latin1 drops runes the core fonts cannot draw, such as emoji.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return -1
		}
		return r
	}, s)
}

func seriousnessOf(c consultation.Consultation) string {
	if c.Image == nil {
		return "Symptom"
	}
	return string(c.Image.Seriousness)
}

func summaryOf(c consultation.Consultation) string {
	switch {
	case c.Image != nil:
		return c.Image.AnalysisResult
	case c.Symptom != nil:
		return "Symptoms: " + c.Symptom.Symptoms
	default:
		return ""
	}
}
