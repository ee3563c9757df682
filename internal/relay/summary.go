package relay

import (
	"fmt"
	"sort"
	"strings"

	"HealthBuddy/internal/models"
	"HealthBuddy/internal/utility"
)

// FormatSummary renders a prescription analysis as the WhatsApp template body,
// using WhatsApp's *bold* and _italic_ markers.
func FormatSummary(info models.PrescriptionInfo) string {
	var sb strings.Builder

	sb.WriteString("*MEDICATIONS*\n")
	if len(info.Medications) > 0 {
		lines := make([]string, 0, len(info.Medications))
		for _, med := range info.Medications {
			lines = append(lines, fmt.Sprintf("• *%s* (%s): %s", med.Name, med.Dosage, med.Timing))
		}
		sb.WriteString(strings.Join(lines, "\n"))
	} else {
		sb.WriteString("_No medications found._\n")
	}

	if len(info.Precautions) > 0 {
		sb.WriteString("\n\n*PRECAUTIONS & ADVICE*\n")
		lines := make([]string, 0, len(info.Precautions))
		for _, note := range info.Precautions {
			lines = append(lines, "• "+note)
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}

	if len(info.Vitals) > 0 {
		sb.WriteString("\n\n*VITALS*\n")
		keys := make([]string, 0, len(info.Vitals))
		for k := range info.Vitals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("• %s: %s", k, info.Vitals[k]))
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}

	return sb.String()
}

// FormatPhone keeps a number that already starts with "+" and otherwise
// prefixes its digits with "+".
func FormatPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + utility.DigitsOnly(phone)
}
