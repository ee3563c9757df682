package geminiservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"HealthBuddy/internal/models"
	"HealthBuddy/internal/utility"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// OriginalLanguage is the language every response is generated in.
	OriginalLanguage = "en"

	// MaxImageBytes is the largest prescription image sent inline.
	MaxImageBytes = 20 << 20
)

// SupportedLanguages maps the language codes offered to users to their display names.
var SupportedLanguages = map[string]string{
	"en": "English",
	"hi": "हिन्दी",
	"bn": "বাংলা",
	"ta": "தமிழ்",
	"te": "తెలుగు",
	"mr": "मराठी",
	"gu": "ગુજરાતી",
	"kn": "ಕನ್ನಡ",
}

// Gateway issues every AI request of the application. It is safe for concurrent use.
type Gateway struct {
	client Generator
	cache  *translationCache
}

// NewGateway wires a Generator to the operation layer. cacheSize <= 0 selects the default.
func NewGateway(client Generator, cacheSize int) (*Gateway, error) {
	cache, err := newTranslationCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation cache: %w", err)
	}
	return &Gateway{client: client, cache: cache}, nil
}

/*=================================================================================
								OPERATIONS
=================================================================================*/

// LookupMedicine returns a patient-facing overview of the named medicine.
func (g *Gateway) LookupMedicine(ctx context.Context, name string) (*models.MedicineInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, lookupError(fmt.Errorf("%w: medicine name is required", ErrInvalidInput))
	}

	log.Info().Str("medicine", name).Msg("Looking up medicine")

	payload := structuredPayload(MedicineSchema, textPart(BuildMedicinePrompt(name)))

	var info models.MedicineInfo
	if err := g.generateAndParse(ctx, "LookupMedicine", payload, MedicineSchema, &info); err != nil {
		return nil, lookupError(err)
	}
	return &info, nil
}

// AnalyzePrescription extracts medications, interactions, vitals and advice from
// a prescription image. mimeType must be an image media type.
func (g *Gateway) AnalyzePrescription(ctx context.Context, image io.Reader, mimeType string) (*models.PrescriptionInfo, error) {
	const op = "AnalyzePrescription"

	mediaType, err := imageMediaType(mimeType)
	if err != nil {
		return nil, analysisError(op, msgPrescriptionFailed, err)
	}

	data, err := io.ReadAll(io.LimitReader(image, MaxImageBytes+1))
	if err != nil {
		return nil, analysisError(op, msgPrescriptionFailed, fmt.Errorf("failed to read image: %w", err))
	}
	switch {
	case len(data) == 0:
		return nil, analysisError(op, msgPrescriptionFailed, fmt.Errorf("%w: image is empty", ErrInvalidInput))
	case len(data) > MaxImageBytes:
		return nil, analysisError(op, msgPrescriptionFailed, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, MaxImageBytes))
	}

	log.Info().Str("mime_type", mediaType).Int("bytes", len(data)).Msg("Analyzing prescription image")

	imagePart := GeminiPart{InlineData: &InlineData{
		MimeType: mediaType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
	payload := structuredPayload(PrescriptionSchema, imagePart, textPart(PrescriptionPrompt))

	var info models.PrescriptionInfo
	if err := g.generateAndParse(ctx, op, payload, PrescriptionSchema, &info); err != nil {
		return nil, analysisError(op, msgPrescriptionFailed, err)
	}
	return &info, nil
}

// AnalyzeSymptoms returns a preliminary, disclaimed assessment of the described symptoms.
// A response without a disclaimer is rejected.
func (g *Gateway) AnalyzeSymptoms(ctx context.Context, symptoms string) (*models.SymptomInfo, error) {
	const op = "AnalyzeSymptoms"

	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, analysisError(op, msgSymptomsFailed, fmt.Errorf("%w: symptom description is required", ErrInvalidInput))
	}

	log.Info().Int("length", len(symptoms)).Msg("Analyzing symptoms")

	payload := structuredPayload(SymptomSchema, textPart(BuildSymptomPrompt(symptoms)))

	var info models.SymptomInfo
	if err := g.generateAndParse(ctx, op, payload, SymptomSchema, &info); err != nil {
		return nil, analysisError(op, msgSymptomsFailed, err)
	}
	return &info, nil
}

// GatewayStats is reported by the health endpoint.
type GatewayStats struct {
	Model              string
	CachedTranslations int
}

func (g *Gateway) Stats() GatewayStats {
	stats := GatewayStats{CachedTranslations: g.cache.len()}
	if m, ok := g.client.(interface{ Model() string }); ok {
		stats.Model = m.Model()
	}
	return stats
}

// NewChatSession opens a conversation bound to the health assistant persona.
func (g *Gateway) NewChatSession() *ChatSession {
	return NewChatSession(g.client)
}

/*=================================================================================
								TRANSLATION
=================================================================================*/

// Translate returns record with its string values translated into lang. Keys and
// structure are preserved and verified, and analysis records must still satisfy
// their response schema. lang "en" returns record as is without a model call.
func Translate[T any](ctx context.Context, g *Gateway, record T, lang string) (T, error) {
	lang = NormalizeLanguage(lang)
	if lang == OriginalLanguage {
		return record, nil
	}

	var zero T
	source, err := json.Marshal(record)
	if err != nil {
		return zero, translationError(fmt.Errorf("failed to encode record: %w", err))
	}

	translated, err := g.translateJSON(ctx, source, lang, recordSchema(record))
	if err != nil {
		return zero, translationError(err)
	}

	var out T
	if err := json.Unmarshal(translated, &out); err != nil {
		return zero, translationError(fmt.Errorf("%w: %v", ErrResponseFormat, err))
	}
	return out, nil
}

// TranslatePair translates two records concurrently, as the comparison view needs.
// Either failure fails the pair.
func TranslatePair[T any](ctx context.Context, g *Gateway, first, second T, lang string) (T, T, error) {
	var a, b T

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		a, err = Translate(grpCtx, g, first, lang)
		return err
	})
	grp.Go(func() error {
		var err error
		b, err = Translate(grpCtx, g, second, lang)
		return err
	})

	if err := grp.Wait(); err != nil {
		var zero T
		return zero, zero, err
	}
	return a, b, nil
}

// translateJSON sends a compact JSON document for translation and returns the
// compact translated document once its shape has been checked against the source.
// A non-nil schema is enforced on the reply as well, so enum values survive.
func (g *Gateway) translateJSON(ctx context.Context, source []byte, lang string, schema *GeminiSchema) ([]byte, error) {
	if _, ok := SupportedLanguages[lang]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	if cached, ok := g.cache.get(lang, source); ok {
		log.Debug().Str("lang", lang).Msg("Translation served from cache")
		return cached, nil
	}

	var sourceValue any
	if err := json.Unmarshal(source, &sourceValue); err != nil {
		return nil, fmt.Errorf("failed to decode source document: %w", err)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, source, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent source document: %w", err)
	}

	log.Info().Str("lang", lang).Int("bytes", len(source)).Msg("Translating document")

	payload := structuredPayload(nil, textPart(BuildTranslatePrompt(lang, indented.Bytes())))

	var translatedValue any
	if err := g.generateAndParse(ctx, "Translate", payload, schema, &translatedValue); err != nil {
		return nil, err
	}

	if diff := diffShapes(keyShape(sourceValue), keyShape(translatedValue)); diff != "" {
		log.Warn().Str("lang", lang).Str("diff", diff).Msg("Translated document changed structure")
		return nil, fmt.Errorf("%w: translation changed the document structure: %s", ErrResponseFormat, diff)
	}

	translated, err := json.Marshal(translatedValue)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translated document: %w", err)
	}

	g.cache.add(lang, source, translated)
	return translated, nil
}

/*=================================================================================
								HELPER FUNCTIONS
=================================================================================*/

// generateAndParse handles the API call, logging errors, and JSON validation in one step.
func (g *Gateway) generateAndParse(ctx context.Context, op string, payload *GeminiPayload, schema *GeminiSchema, out any) error {
	text, err := g.client.Generate(ctx, payload)
	if err != nil {
		log.Error().Err(err).Str("op", op).Msg("Gemini call failed")
		return err
	}

	if err := decodeStructured(text, schema, out); err != nil {
		log.Error().Err(err).Str("op", op).Str("response_preview", utility.Truncate(text, 200)).Msg("Gemini response failed validation")
		return err
	}
	return nil
}

// NormalizeLanguage trims and lower-cases a language code, e.g. " Hi " -> "hi".
func NormalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// recordSchema returns the response schema an analysis record was produced under.
func recordSchema(record any) *GeminiSchema {
	switch record.(type) {
	case models.MedicineInfo, *models.MedicineInfo:
		return MedicineSchema
	case models.PrescriptionInfo, *models.PrescriptionInfo:
		return PrescriptionSchema
	case models.SymptomInfo, *models.SymptomInfo:
		return SymptomSchema
	}
	return nil
}

// imageMediaType normalizes a declared content type and requires it to be an image.
func imageMediaType(declared string) (string, error) {
	if strings.TrimSpace(declared) == "" {
		return "", fmt.Errorf("%w: image media type is required", ErrInvalidInput)
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %q is not an image type", ErrInvalidInput, mediaType)
	}
	return mediaType, nil
}

// IsInvalidInput reports whether err was caused by the caller's input rather than the model.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnsupportedLanguage)
}
