package geminiservice

import (
	"fmt"

	"HealthBuddy/internal/models"
)

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	This is the core structure that tells Gemini how to format its JSON response
=================================================================================*/

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING", "INTEGER").
	Type string `json:"type"`

	// Format specifies data format, primarily used for "enum" validation.
	Format string `json:"format,omitempty"`

	// Description explains the field's purpose to the AI, helping it generate better content.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid specific string values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`

	// MinItems is only checked locally on the decoded response; it is not sent to the API.
	MinItems int `json:"-"`

	// NonEmpty rejects blank strings during local validation.
	NonEmpty bool `json:"-"`
}

func stringField(description string) *GeminiSchema {
	return &GeminiSchema{Type: "STRING", Description: description}
}

func stringList(description string) *GeminiSchema {
	return &GeminiSchema{Type: "ARRAY", Description: description, Items: &GeminiSchema{Type: "STRING"}}
}

func enumField(description string, values []string) *GeminiSchema {
	return &GeminiSchema{Type: "STRING", Format: "enum", Description: description, Enum: values}
}

/*
MedicineSchema describes the medicine lookup response. Every field is mandatory.
*/
var MedicineSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"name":         stringField("Name of the medicine."),
		"uses":         stringList("Common uses of the medicine."),
		"dosage":       stringField("Recommended dosage information."),
		"side_effects": stringList("Potential side effects."),
		"precautions":  stringList("Precautions to take."),
	},
	Required: []string{"name", "uses", "dosage", "side_effects", "precautions"},
}

/*
PrescriptionSchema describes the prescription image analysis. drug_interactions is
required so the model has to answer with [] instead of dropping the key.
*/
var PrescriptionSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"medications": {
			Type:        "ARRAY",
			Description: "List of prescribed medications.",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"name":    stringField("Name of the medication."),
					"dosage":  stringField("Dosage strength, e.g., '500mg'."),
					"timing":  stringField("When to take it, e.g., '1-0-1 After food'."),
					"purpose": stringField("The likely medical purpose of this specific medication, e.g., 'Pain relief'."),
				},
				Required: []string{"name", "dosage", "timing", "purpose"},
			},
		},
		"precautions": stringList("General precautions or advice mentioned in the prescription."),
		"vitals": {
			Type:        "OBJECT",
			Description: "Patient vitals if mentioned, as key-value pairs.",
			Properties: map[string]*GeminiSchema{
				"BP":    stringField("Blood Pressure reading."),
				"Pulse": stringField("Pulse rate."),
				"Temp":  stringField("Body temperature."),
			},
		},
		"drug_interactions": {
			Type:        "ARRAY",
			Description: "Analysis of potential interactions between the prescribed drugs.",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"medicines": {
						Type:        "ARRAY",
						Description: "The names of the two or more drugs that interact.",
						Items:       &GeminiSchema{Type: "STRING"},
						MinItems:    2,
					},
					"interaction_level": enumField("The severity of the potential interaction.", models.InteractionLevels),
					"description":       stringField("A clear, user-friendly explanation of the potential interaction and what to watch out for."),
				},
				Required: []string{"medicines", "interaction_level", "description"},
			},
		},
		"lifestyle_and_diet_recos": stringList("Actionable lifestyle and dietary recommendations relevant to the medications or conditions."),
		"potential_conditions_summary": stringField(
			"A brief summary inferring the potential health conditions being treated based on the combination of medications."),
	},
	Required: []string{"medications", "precautions", "drug_interactions", "lifestyle_and_diet_recos", "potential_conditions_summary"},
}

/*
SymptomSchema describes the symptom checker response.
*/
var SymptomSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"disclaimer": {
			Type:        "STRING",
			Description: "A mandatory disclaimer stating that this is not medical advice and the user should consult a healthcare professional.",
			NonEmpty:    true,
		},
		"summary": stringField("A brief summary of the potential issues based on the symptoms."),
		"possible_conditions": {
			Type:        "ARRAY",
			Description: "A list of possible medical conditions related to the symptoms.",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"name":        stringField("The name of the possible condition."),
					"description": stringField("A brief, user-friendly description of the condition."),
				},
				Required: []string{"name", "description"},
			},
		},
		"advice":  stringList("Actionable advice and next steps for the user, such as home care or when to see a doctor."),
		"urgency": enumField("An assessment of urgency, indicating if immediate medical attention is needed.", models.Urgencies),
	},
	Required: []string{"disclaimer", "summary", "possible_conditions", "advice", "urgency"},
}

/* =================================================================================
						PROMPT ENGINEERING & GUARDRAILS
=================================================================================*/

const noMarkdown = "Do not include any markdown formatting like ```json or any introductory text."

// MedicinePromptTemplate takes the medicine name.
const MedicinePromptTemplate = `Provide a user-friendly medical overview for %q. Detail its primary uses, standard dosage, common side effects, and important precautions. The target audience is a patient, so keep the language clear and concise. Structure the output as a JSON object. ` + noMarkdown

// PrescriptionPrompt accompanies the inline prescription image.
const PrescriptionPrompt = `Provide a deep analysis of this medical prescription image. Your audience is the patient, so make the language clear and easy to understand.
1.  **Medications**: Extract all medications. For each, specify its name, dosage, timing (when to take it), and its likely purpose (e.g., "for blood pressure").
2.  **Drug Interactions**: Critically analyze the list of medications for potential drug-drug interactions. For each interaction found, identify the medicines involved, the severity level ('High', 'Moderate', or 'Low'), and a simple explanation of what could happen. If no interactions are found, return an empty array for this field.
3.  **Potential Conditions**: Based on the collection of medicines, infer the likely health condition(s) being treated and provide a brief summary.
4.  **Lifestyle & Diet**: Give some general lifestyle and dietary recommendations that would be beneficial for the likely conditions.
5.  **Precautions**: List any general precautions or advice written on the prescription.
6.  **Vitals**: If any patient vitals (like BP, pulse) are mentioned, extract them.

Return the final output as a single, clean JSON object that adheres to the provided schema. ` + noMarkdown

// SymptomPromptTemplate takes the user's symptom description.
const SymptomPromptTemplate = `A user has the following symptoms: %q. Provide a preliminary analysis. IMPORTANT: You MUST include a clear disclaimer that this is not a medical diagnosis and they must consult a doctor. Based on the symptoms, list possible conditions, provide general advice, and assess the urgency. The language should be clear and for a general audience. Structure the output as a JSON object. ` + noMarkdown

// TranslatePromptTemplate takes the target language code and the indented JSON document.
const TranslatePromptTemplate = `Translate the JSON object below into the language with code %q.
IMPORTANT:
- Translate only the string values of the JSON properties.
- Do NOT translate the JSON keys.
- Do NOT alter the JSON structure.
- Do NOT add any extra text, comments, or markdown formatting like ` + "```json" + `. The output MUST be only the translated JSON object.

JSON to translate:
%s`

// ChatSystemInstruction is the persona bound to every chat session.
const ChatSystemInstruction = `You are 'GenAI Health Buddy', a friendly and empathetic AI assistant. Your goal is to provide helpful information about health, wellness, and medications. You can discuss symptoms, and medicine interactions, or ask general health questions. IMPORTANT: You must always include a disclaimer that you are not a medical professional and your advice should not replace consultation with a qualified healthcare provider, especially when giving suggestions about health conditions or interactions.`

// ChatGreeting opens every transcript.
const ChatGreeting = "Hello! I'm your GenAI Health Buddy. You can ask me about medicine interactions, health symptoms, or general wellness. How can I help?\n\n**Disclaimer:** I am an AI assistant, not a medical professional. Please consult a doctor for medical advice."

func BuildMedicinePrompt(name string) string {
	return fmt.Sprintf(MedicinePromptTemplate, name)
}

func BuildSymptomPrompt(symptoms string) string {
	return fmt.Sprintf(SymptomPromptTemplate, symptoms)
}

// BuildTranslatePrompt embeds an already indented JSON document.
func BuildTranslatePrompt(lang string, document []byte) string {
	return fmt.Sprintf(TranslatePromptTemplate, lang, document)
}
