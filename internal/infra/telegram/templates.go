// internal/infra/telegram/templates.go
package telegram

import (
	"fmt"
	"strings"

	"renewal_reminder_bot/internal/domain/messaging"
)

// Template texts per template key. The namespace part of a template ID
// selects nothing here yet; every center shares the approved wording and
// the center-specific details arrive through the variables.
var templateTexts = map[string]string{
	messaging.TemplateKeyReminder1: "Hola {{first_name}}, la inspección de tu vehículo vence el {{due_date}}. " +
		"Puedes reservar tu cita en {{center}} o llamarnos al {{center_phone}}.",
	messaging.TemplateKeyReminder2: "Hola {{first_name}}, quedan pocos días: la inspección vence el {{due_date}}. " +
		"Reserva ya tu cita en {{center}} ({{center_phone}}).",
	messaging.TemplateKeyReminder3: "{{first_name}}, última semana: la inspección vence el {{due_date}}. " +
		"Llámanos al {{center_phone}} y te damos cita en {{center}} hoy mismo.",
	messaging.TemplateKeyFollowUp: "Hola {{first_name}}, ¿pudiste ver nuestro mensaje sobre la inspección del {{due_date}}? " +
		"Respóndenos por aquí y te ayudamos con la cita.",
}

// RenderTemplate resolves a namespaced template ID ("<namespace>.<key>")
// to its text and substitutes {{var}} placeholders.
func RenderTemplate(templateID string, vars map[string]string) (string, error) {
	key := templateID
	if i := strings.LastIndex(templateID, "."); i >= 0 {
		key = templateID[i+1:]
	}
	text, ok := templateTexts[key]
	if !ok {
		return "", fmt.Errorf("unknown template %q", templateID)
	}
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	return text, nil
}
