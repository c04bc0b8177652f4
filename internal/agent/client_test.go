package agent

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource always returns the same index, clamped to n.
type fixedSource int

func (f fixedSource) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

func TestAnalyzeSymptoms_Rules(t *testing.T) {
	e := NewEngine(fixedSource(0))

	tests := []struct {
		name     string
		symptoms string
		want     string
	}{
		{"empty", "", promptForDetails},
		{"whitespace", "  \t\n", promptForDetails},
		{"fever and cough", "I have a FEVER and a dry Cough", adviceFeverCough},
		{"headache", "Terrible headache since morning", adviceHeadache},
		{"rash", "red rash on my arm", adviceSkin},
		{"itching", "constant itching", adviceSkin},
		{"stomach", "stomach ache", adviceStomach},
		{"nausea", "Nausea after meals", adviceStomach},
		{"fever alone falls through", "mild fever", genericAdvice[0] + genericDisclaimer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.AnalyzeSymptoms(tt.symptoms))
		})
	}
}

func TestAnalyzeSymptoms_FirstMatchWins(t *testing.T) {
	e := NewEngine(fixedSource(0))

	assert.Equal(t, adviceFeverCough, e.AnalyzeSymptoms("fever, cough and headache"))
	assert.Equal(t, adviceHeadache, e.AnalyzeSymptoms("headache and nausea"))
	assert.Equal(t, adviceSkin, e.AnalyzeSymptoms("rash with stomach pain"))
}

func TestAnalyzeSymptoms_GenericUsesSource(t *testing.T) {
	for i := range genericAdvice {
		got := NewEngine(fixedSource(i)).AnalyzeSymptoms("sore knee")
		assert.Equal(t, genericAdvice[i]+genericDisclaimer, got)
	}
}

func TestAnalyzeSymptoms_GenericAlwaysHasDisclaimer(t *testing.T) {
	e := NewEngine(rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 50; i++ {
		got := e.AnalyzeSymptoms("tired")
		assert.True(t, strings.HasSuffix(got, genericDisclaimer))
	}
}

func TestAnalyzeImage_TextMatchesRating(t *testing.T) {
	markers := map[Seriousness]string{
		SeriousnessLow:    "🟢 LOW",
		SeriousnessMedium: "🟡 MEDIUM",
		SeriousnessHigh:   "🔴 HIGH",
	}

	for i, level := range seriousnessLevels {
		a := NewEngine(fixedSource(i)).AnalyzeImage("uploads/x.png")

		require.Equal(t, level, a.Seriousness)
		assert.True(t, strings.HasPrefix(a.Text, imageReportHeader))
		assert.True(t, strings.HasSuffix(a.Text, imageDisclaimer))
		assert.Contains(t, a.Text, markers[level])
		for other, marker := range markers {
			if other != level {
				assert.NotContains(t, a.Text, marker)
			}
		}
	}
}

func TestAnalyzeImage_RandomLevelsAreValid(t *testing.T) {
	e := NewEngine(rand.New(rand.NewPCG(7, 7)))
	seen := map[Seriousness]bool{}
	for i := 0; i < 200; i++ {
		a := e.AnalyzeImage("uploads/x.png")
		require.True(t, a.Seriousness.Valid())
		seen[a.Seriousness] = true
	}
	assert.Len(t, seen, 3)
}

func TestSeriousnessValid(t *testing.T) {
	assert.True(t, SeriousnessHigh.Valid())
	assert.False(t, Seriousness("Critical").Valid())
	assert.False(t, Seriousness("").Valid())
}
