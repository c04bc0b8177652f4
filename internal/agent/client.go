package agent

import (
	"math/rand/v2"
	"strings"
)

// Seriousness is the coarse rating attached to an image analysis.
type Seriousness string

const (
	SeriousnessLow    Seriousness = "Low"
	SeriousnessMedium Seriousness = "Medium"
	SeriousnessHigh   Seriousness = "High"
)

var seriousnessLevels = []Seriousness{SeriousnessLow, SeriousnessMedium, SeriousnessHigh}

func (s Seriousness) Valid() bool {
	switch s {
	case SeriousnessLow, SeriousnessMedium, SeriousnessHigh:
		return true
	}
	return false
}

// RandomSource is satisfied by *rand.Rand.
type RandomSource interface {
	IntN(n int) int
}

type ImageAnalysis struct {
	Text        string
	Seriousness Seriousness
}

// Engine is a mock analysis backend. It produces canned advice and never
// inspects image content.
type Engine struct {
	rng RandomSource
}

func NewEngine(rng RandomSource) *Engine {
	return &Engine{rng: rng}
}

// NewRandomEngine seeds from the runtime's random source.
func NewRandomEngine() *Engine {
	return NewEngine(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// AnalyzeSymptoms picks the first matching keyword rule, falling back to a
// random generic advisory.
func (e *Engine) AnalyzeSymptoms(symptoms string) string {
	if strings.TrimSpace(symptoms) == "" {
		return promptForDetails
	}

	s := strings.ToLower(symptoms)
	switch {
	case strings.Contains(s, "fever") && strings.Contains(s, "cough"):
		return adviceFeverCough
	case strings.Contains(s, "headache"):
		return adviceHeadache
	case strings.Contains(s, "rash") || strings.Contains(s, "itching"):
		return adviceSkin
	case strings.Contains(s, "stomach") || strings.Contains(s, "nausea"):
		return adviceStomach
	}

	return genericAdvice[e.rng.IntN(len(genericAdvice))] + genericDisclaimer
}

// AnalyzeImage draws one seriousness level and builds the report text from
// that same draw.
func (e *Engine) AnalyzeImage(imagePath string) ImageAnalysis {
	level := seriousnessLevels[e.rng.IntN(len(seriousnessLevels))]

	var b strings.Builder
	b.WriteString(imageReportHeader)
	b.WriteString(imageFindings[level])
	b.WriteString(imageDisclaimer)

	return ImageAnalysis{Text: b.String(), Seriousness: level}
}
