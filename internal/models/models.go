/*
Package models holds the records exchanged across the AI gateway boundary.
Every record is a plain value created fresh per model response.
*/
package models

/* =================================================================================
							ENUMERATIONS
=================================================================================*/

// InteractionLevel is the severity of a drug-drug interaction.
type InteractionLevel string

const (
	InteractionHigh     InteractionLevel = "High"
	InteractionModerate InteractionLevel = "Moderate"
	InteractionLow      InteractionLevel = "Low"
)

// InteractionLevels lists the accepted values in the order the schema declares them.
var InteractionLevels = []string{string(InteractionHigh), string(InteractionModerate), string(InteractionLow)}

func (l InteractionLevel) Valid() bool {
	switch l {
	case InteractionHigh, InteractionModerate, InteractionLow:
		return true
	}
	return false
}

// Urgency is the symptom checker's assessment of how soon care is needed.
type Urgency string

const (
	UrgencyLow       Urgency = "Low"
	UrgencyMedium    Urgency = "Medium"
	UrgencyHigh      Urgency = "High"
	UrgencyEmergency Urgency = "Emergency"
)

// Urgencies lists the accepted values in the order the schema declares them.
var Urgencies = []string{string(UrgencyLow), string(UrgencyMedium), string(UrgencyHigh), string(UrgencyEmergency)}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

/* =================================================================================
							RESPONSE RECORDS
=================================================================================*/

// MedicineInfo is the patient-facing overview of a single medicine.
type MedicineInfo struct {
	Name        string   `json:"name"`
	Uses        []string `json:"uses"`
	Dosage      string   `json:"dosage"`
	SideEffects []string `json:"side_effects"`
	Precautions []string `json:"precautions"`
}

// Medication is one line item extracted from a prescription.
type Medication struct {
	Name    string `json:"name"`
	Dosage  string `json:"dosage"`
	Timing  string `json:"timing"`
	Purpose string `json:"purpose"`
}

// DrugInteraction describes a potential interaction between two or more prescribed drugs.
type DrugInteraction struct {
	Medicines        []string         `json:"medicines"`
	InteractionLevel InteractionLevel `json:"interaction_level"`
	Description      string           `json:"description"`
}

// PrescriptionInfo is the full analysis of a prescription image.
// DrugInteractions is always present; an empty slice means none were found.
type PrescriptionInfo struct {
	Medications                []Medication      `json:"medications"`
	Precautions                []string          `json:"precautions"`
	Vitals                     map[string]string `json:"vitals,omitempty"`
	DrugInteractions           []DrugInteraction `json:"drug_interactions"`
	LifestyleAndDietRecos      []string          `json:"lifestyle_and_diet_recos"`
	PotentialConditionsSummary string            `json:"potential_conditions_summary"`
}

// PossibleCondition is a condition the symptom checker considers plausible.
type PossibleCondition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SymptomInfo is the preliminary analysis of a free-text symptom description.
type SymptomInfo struct {
	Disclaimer         string              `json:"disclaimer"`
	Summary            string              `json:"summary"`
	PossibleConditions []PossibleCondition `json:"possible_conditions"`
	Advice             []string            `json:"advice"`
	Urgency            Urgency             `json:"urgency"`
}

// ChatMessage is one entry of a conversation transcript.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
