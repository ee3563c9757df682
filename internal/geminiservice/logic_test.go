package geminiservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"HealthBuddy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fixtures
// ============================================================================

func doloInfo() models.MedicineInfo {
	return models.MedicineInfo{
		Name:        "Dolo 650",
		Uses:        []string{"Fever", "Pain relief"},
		Dosage:      "1 tablet every 6 hours",
		SideEffects: []string{"Nausea"},
		Precautions: []string{"Avoid alcohol"},
	}
}

func prescriptionInfo() models.PrescriptionInfo {
	return models.PrescriptionInfo{
		Medications: []models.Medication{
			{Name: "Amlodipine", Dosage: "5mg", Timing: "1-0-0 After food", Purpose: "Blood pressure"},
			{Name: "Aspirin", Dosage: "75mg", Timing: "0-0-1", Purpose: "Blood thinner"},
		},
		Precautions: []string{"Reduce salt intake"},
		Vitals:      map[string]string{"BP": "150/95", "Pulse": "82"},
		DrugInteractions: []models.DrugInteraction{{
			Medicines:        []string{"Amlodipine", "Aspirin"},
			InteractionLevel: models.InteractionLow,
			Description:      "Aspirin may slightly reduce the blood pressure lowering effect.",
		}},
		LifestyleAndDietRecos:      []string{"Walk 30 minutes daily"},
		PotentialConditionsSummary: "Hypertension with cardiovascular risk.",
	}
}

func symptomInfo() models.SymptomInfo {
	return models.SymptomInfo{
		Disclaimer:         "This is not a medical diagnosis. Please consult a doctor.",
		Summary:            "Symptoms resemble a viral infection.",
		PossibleConditions: []models.PossibleCondition{{Name: "Common cold", Description: "A mild viral infection."}},
		Advice:             []string{"Rest", "Drink fluids"},
		Urgency:            models.UrgencyLow,
	}
}

// ============================================================================
// Medicine Lookup Tests
// ============================================================================

func TestLookupMedicineDolo(t *testing.T) {
	want := doloInfo()
	g, stub := newTestGateway(t, replyWith(mustJSON(t, want)))

	got, err := g.LookupMedicine(context.Background(), "Dolo 650")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	p := stub.last()
	assert.Contains(t, p.Contents[0].Parts[0].Text, `"Dolo 650"`)
	assert.Contains(t, p.Contents[0].Parts[0].Text, "patient")
	assert.Equal(t, "application/json", p.GenerationConfig.ResponseMimeType)
	assert.Same(t, MedicineSchema, p.GenerationConfig.ResponseSchema)
}

func TestLookupMedicineStripsCodeFence(t *testing.T) {
	want := doloInfo()
	g, _ := newTestGateway(t, replyWith("```json\n"+mustJSON(t, want)+"\n```"))

	got, err := g.LookupMedicine(context.Background(), "Dolo 650")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestLookupMedicineFailures(t *testing.T) {
	tests := []struct {
		name    string
		respond func(*GeminiPayload) (string, error)
		format  bool
	}{
		{"empty response", replyWith(""), true},
		{"whitespace response", replyWith("  \n"), true},
		{"not json", replyWith("Dolo 650 is a paracetamol tablet."), true},
		{"missing required field", replyWith(`{"name":"Dolo 650","uses":[],"dosage":"1","side_effects":[]}`), true},
		{"wrong type", replyWith(`{"name":"Dolo 650","uses":"Fever","dosage":"1","side_effects":[],"precautions":[]}`), true},
		{"transport error", func(*GeminiPayload) (string, error) { return "", errors.New("connection reset") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, tt.respond)

			got, err := g.LookupMedicine(context.Background(), "Dolo 650")
			require.Error(t, err)
			assert.Nil(t, got)

			var opErr *OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, KindLookup, opErr.Kind)
			assert.Equal(t, "Failed to fetch information for the specified medicine.", UserMessage(err))
			assert.Equal(t, tt.format, errors.Is(err, ErrResponseFormat))
		})
	}
}

func TestLookupMedicineBlankName(t *testing.T) {
	g, stub := newTestGateway(t, replyWith("{}"))

	_, err := g.LookupMedicine(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, 0, stub.calls())
}

// ============================================================================
// Prescription Analysis Tests
// ============================================================================

func TestAnalyzePrescription(t *testing.T) {
	want := prescriptionInfo()
	g, stub := newTestGateway(t, replyWith(mustJSON(t, want)))
	image := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

	got, err := g.AnalyzePrescription(context.Background(), bytes.NewReader(image), "image/png")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	parts := stub.last().Contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), parts[0].InlineData.Data)
	for _, facet := range []string{"Medications", "Drug Interactions", "Potential Conditions", "Lifestyle & Diet", "Precautions", "Vitals"} {
		assert.Contains(t, parts[1].Text, facet)
	}
}

func TestAnalyzePrescriptionEmptyInteractionsAccepted(t *testing.T) {
	want := prescriptionInfo()
	want.DrugInteractions = []models.DrugInteraction{}
	want.Vitals = nil
	g, _ := newTestGateway(t, replyWith(mustJSON(t, want)))

	got, err := g.AnalyzePrescription(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.NoError(t, err)
	assert.NotNil(t, got.DrugInteractions)
	assert.Empty(t, got.DrugInteractions)
}

func TestAnalyzePrescriptionMissingInteractions(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustJSON(t, prescriptionInfo())), &doc))
	delete(doc, "drug_interactions")
	g, _ := newTestGateway(t, replyWith(mustJSON(t, doc)))

	_, err := g.AnalyzePrescription(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.Error(t, err)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindAnalysis, opErr.Kind)
	assert.ErrorIs(t, err, ErrResponseFormat)
	assert.Contains(t, err.Error(), "drug_interactions")
	assert.Contains(t, UserMessage(err), "image may be unclear")
}

func TestAnalyzePrescriptionSchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.PrescriptionInfo)
		path   string
	}{
		{"unknown interaction level", func(p *models.PrescriptionInfo) { p.DrugInteractions[0].InteractionLevel = "Severe" }, "interaction_level"},
		{"single medicine interaction", func(p *models.PrescriptionInfo) { p.DrugInteractions[0].Medicines = []string{"Aspirin"} }, "medicines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := prescriptionInfo()
			tt.mutate(&info)
			g, _ := newTestGateway(t, replyWith(mustJSON(t, info)))

			_, err := g.AnalyzePrescription(context.Background(), strings.NewReader("img"), "image/jpeg")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrResponseFormat)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestAnalyzePrescriptionRejectsBadInput(t *testing.T) {
	g, stub := newTestGateway(t, replyWith("{}"))

	_, err := g.AnalyzePrescription(context.Background(), strings.NewReader("%PDF-1.4"), "application/pdf")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))

	_, err = g.AnalyzePrescription(context.Background(), strings.NewReader(""), "image/png")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))

	_, err = g.AnalyzePrescription(context.Background(), strings.NewReader("img"), "")
	require.Error(t, err)

	assert.Equal(t, 0, stub.calls())
}

// ============================================================================
// Symptom Analysis Tests
// ============================================================================

func TestAnalyzeSymptoms(t *testing.T) {
	want := symptomInfo()
	g, stub := newTestGateway(t, replyWith(mustJSON(t, want)))

	got, err := g.AnalyzeSymptoms(context.Background(), "headache, fever and a sore throat")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Contains(t, stub.last().Contents[0].Parts[0].Text, "disclaimer")
}

func TestAnalyzeSymptomsRejectsEmptyDisclaimer(t *testing.T) {
	info := symptomInfo()
	info.Disclaimer = "  "
	g, _ := newTestGateway(t, replyWith(mustJSON(t, info)))

	_, err := g.AnalyzeSymptoms(context.Background(), "headache")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseFormat)
	assert.Equal(t, "Failed to analyze symptoms.", UserMessage(err))
}

func TestAnalyzeSymptomsRejectsUnknownUrgency(t *testing.T) {
	info := symptomInfo()
	info.Urgency = "Critical"
	g, _ := newTestGateway(t, replyWith(mustJSON(t, info)))

	_, err := g.AnalyzeSymptoms(context.Background(), "chest pain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseFormat)
}

func TestAnalysisMalformedResponses(t *testing.T) {
	ops := []struct {
		name    string
		message string
		run     func(g *Gateway) error
	}{
		{"prescription", msgPrescriptionFailed, func(g *Gateway) error {
			_, err := g.AnalyzePrescription(context.Background(), strings.NewReader("img"), "image/jpeg")
			return err
		}},
		{"symptoms", msgSymptomsFailed, func(g *Gateway) error {
			_, err := g.AnalyzeSymptoms(context.Background(), "headache")
			return err
		}},
	}
	replies := map[string]string{
		"empty":    "",
		"not json": "The prescription lists two medicines.",
	}

	for _, op := range ops {
		for replyName, reply := range replies {
			t.Run(op.name+"/"+replyName, func(t *testing.T) {
				g, _ := newTestGateway(t, replyWith(reply))

				err := op.run(g)
				require.Error(t, err)

				var opErr *OperationError
				require.ErrorAs(t, err, &opErr)
				assert.Equal(t, KindAnalysis, opErr.Kind)
				assert.ErrorIs(t, err, ErrResponseFormat)
				assert.Equal(t, op.message, UserMessage(err))
			})
		}
	}
}

// ============================================================================
// Translation Tests
// ============================================================================

func TestTranslateOriginalLanguageIsIdentity(t *testing.T) {
	g, stub := newTestGateway(t, replyWith("{}"))
	want := prescriptionInfo()

	got, err := Translate(context.Background(), g, want, "en")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 0, stub.calls())
}

func TestTranslatePreservesKeys(t *testing.T) {
	translated := models.MedicineInfo{
		Name:        "डोलो 650",
		Uses:        []string{"बुखार", "दर्द से राहत"},
		Dosage:      "हर 6 घंटे में 1 गोली",
		SideEffects: []string{"जी मिचलाना"},
		Precautions: []string{"शराब से बचें"},
	}
	g, stub := newTestGateway(t, replyWith(mustJSON(t, translated)))

	got, err := Translate(context.Background(), g, doloInfo(), "hi")
	require.NoError(t, err)
	assert.Equal(t, translated, got)

	p := stub.last()
	assert.Nil(t, p.GenerationConfig.ResponseSchema)
	assert.Equal(t, "application/json", p.GenerationConfig.ResponseMimeType)
	assert.Contains(t, p.Contents[0].Parts[0].Text, `"hi"`)
	assert.Contains(t, p.Contents[0].Parts[0].Text, `"side_effects": [`)
}

func TestTranslateRejectsStructuralDrift(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"translated key", `{"नाम":"डोलो","uses":["a","b"],"dosage":"d","side_effects":["n"],"precautions":["p"]}`},
		{"dropped list item", `{"name":"डोलो","uses":["a"],"dosage":"d","side_effects":["n"],"precautions":["p"]}`},
		{"extra key", `{"name":"डोलो","uses":["a","b"],"dosage":"d","side_effects":["n"],"precautions":["p"],"note":"x"}`},
		{"leaf type changed", `{"name":"डोलो","uses":["a","b"],"dosage":["d"],"side_effects":["n"],"precautions":["p"]}`},
		{"not json", `डोलो 650`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, replyWith(tt.reply))

			_, err := Translate(context.Background(), g, doloInfo(), "hi")
			require.Error(t, err)

			var opErr *OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, KindTranslation, opErr.Kind)
			assert.ErrorIs(t, err, ErrResponseFormat)
		})
	}
}

func TestTranslateUnsupportedLanguage(t *testing.T) {
	g, stub := newTestGateway(t, replyWith("{}"))

	_, err := Translate(context.Background(), g, doloInfo(), "xx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Equal(t, 0, stub.calls())
}

func TestTranslateUsesCache(t *testing.T) {
	translated := doloInfo()
	translated.Name = "டோலோ 650"
	g, stub := newTestGateway(t, replyWith(mustJSON(t, translated)))

	for i := 0; i < 3; i++ {
		got, err := Translate(context.Background(), g, doloInfo(), "ta")
		require.NoError(t, err)
		assert.Equal(t, translated, got)
	}
	assert.Equal(t, 1, stub.calls())
	assert.Equal(t, 1, g.Stats().CachedTranslations)
}

func TestTranslatePair(t *testing.T) {
	var calls atomic.Int32
	g, _ := newTestGateway(t, func(p *GeminiPayload) (string, error) {
		calls.Add(1)
		prompt := p.Contents[0].Parts[0].Text
		if strings.Contains(prompt, "Crocin") {
			return `{"name":"க்ரோசின்","uses":["காய்ச்சல்"],"dosage":"d","side_effects":["s"],"precautions":["p"]}`, nil
		}
		return `{"name":"டோலோ","uses":["காய்ச்சல்","வலி"],"dosage":"d","side_effects":["s"],"precautions":["p"]}`, nil
	})
	second := models.MedicineInfo{Name: "Crocin", Uses: []string{"Fever"}, Dosage: "1", SideEffects: []string{"Rash"}, Precautions: []string{"Liver"}}

	a, b, err := TranslatePair(context.Background(), g, doloInfo(), second, "ta")
	require.NoError(t, err)
	assert.Equal(t, "டோலோ", a.Name)
	assert.Equal(t, "க்ரோசின்", b.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTranslatePairFailsTogether(t *testing.T) {
	g, _ := newTestGateway(t, func(p *GeminiPayload) (string, error) {
		if strings.Contains(p.Contents[0].Parts[0].Text, "Crocin") {
			return "", errors.New("upstream unavailable")
		}
		return `{"name":"x","uses":["a","b"],"dosage":"d","side_effects":["s"],"precautions":["p"]}`, nil
	})
	second := models.MedicineInfo{Name: "Crocin", Uses: []string{}, SideEffects: []string{}, Precautions: []string{}}

	_, _, err := TranslatePair(context.Background(), g, doloInfo(), second, "kn")
	require.Error(t, err)
	assert.Equal(t, "Failed to translate content. Please try again.", UserMessage(err))
}

func TestTranslateNormalizesLanguageCode(t *testing.T) {
	translated := doloInfo()
	translated.Name = "डोलो 650"
	g, stub := newTestGateway(t, replyWith(mustJSON(t, translated)))

	got, err := Translate(context.Background(), g, doloInfo(), " EN ")
	require.NoError(t, err)
	assert.Equal(t, doloInfo(), got)
	assert.Equal(t, 0, stub.calls())

	got, err = Translate(context.Background(), g, doloInfo(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, translated, got)
	assert.Contains(t, stub.last().Contents[0].Parts[0].Text, `"hi"`)
}

func TestTranslateKeepsRecordSchema(t *testing.T) {
	symptomReply := func(urgency string) string {
		info := symptomInfo()
		info.Summary = "वायरल संक्रमण जैसे लक्षण।"
		info.Urgency = models.Urgency(urgency)
		return mustJSON(t, info)
	}
	prescriptionReply := func(level string) string {
		info := prescriptionInfo()
		info.PotentialConditionsSummary = "उच्च रक्तचाप।"
		info.DrugInteractions[0].InteractionLevel = models.InteractionLevel(level)
		return mustJSON(t, info)
	}
	medicineReply := func(dosage any) string {
		return mustJSON(t, map[string]any{
			"name": "डोलो 650", "uses": []string{"बुखार", "दर्द"}, "dosage": dosage,
			"side_effects": []string{"जी मिचलाना"}, "precautions": []string{"शराब से बचें"},
		})
	}

	tests := []struct {
		name    string
		reply   string
		wantErr bool
		run     func(g *Gateway) error
	}{
		{"symptom valid", symptomReply("Low"), false, func(g *Gateway) error {
			_, err := Translate(context.Background(), g, symptomInfo(), "hi")
			return err
		}},
		{"symptom translated urgency", symptomReply("कम"), true, func(g *Gateway) error {
			_, err := Translate(context.Background(), g, symptomInfo(), "hi")
			return err
		}},
		{"prescription valid", prescriptionReply("Low"), false, func(g *Gateway) error {
			_, err := Translate(context.Background(), g, prescriptionInfo(), "hi")
			return err
		}},
		{"prescription translated level", prescriptionReply("निम्न"), true, func(g *Gateway) error {
			_, err := Translate(context.Background(), g, prescriptionInfo(), "hi")
			return err
		}},
		{"medicine valid", medicineReply("हर 6 घंटे में 1 गोली"), false, func(g *Gateway) error {
			_, err := Translate(context.Background(), g, doloInfo(), "hi")
			return err
		}},
		{"medicine null dosage", medicineReply(nil), true, func(g *Gateway) error {
			_, err := Translate(context.Background(), g, doloInfo(), "hi")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, replyWith(tt.reply))

			err := tt.run(g)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var opErr *OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, KindTranslation, opErr.Kind)
			assert.ErrorIs(t, err, ErrResponseFormat)
			assert.Equal(t, 0, g.Stats().CachedTranslations)
		})
	}
}
