package intent

import (
	"fmt"
	"strings"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/session"
)

const refPrefix = "@ref:"

// buildPrompt monta o pedido ao modelo com o subconjunto do catálogo visível
// ao papel e as referências recentes da sessão
func buildPrompt(text string, role command.Role, visible []*catalog.Descriptor, mem session.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("You are an intent parser for a marketplace command console. Convert the user's command into structured JSON. ")
	sb.WriteString("Commands may be English, Hindi or Hinglish. Respond ONLY with the JSON object.\n\n")

	sb.WriteString(fmt.Sprintf("CALLER ROLE: %s\n\n", role))
	sb.WriteString("AVAILABLE ACTIONS (use only these names):\n")
	for _, d := range visible {
		sb.WriteString("- ")
		sb.WriteString(d.Name)
		sb.WriteString(": ")
		sb.WriteString(d.Description)
		if len(d.Params) > 0 {
			parts := make([]string, 0, len(d.Params))
			for _, p := range d.Params {
				s := p.Name + ":" + string(p.Type)
				if p.Type == catalog.TypeEnum {
					s += "(" + strings.Join(p.Enum, "|") + ")"
				}
				if !p.Required {
					s += "?"
				}
				parts = append(parts, s)
			}
			sb.WriteString(" (params: ")
			sb.WriteString(strings.Join(parts, ", "))
			sb.WriteString(")")
		}
		if len(d.Examples) > 0 {
			sb.WriteString(fmt.Sprintf(" e.g. %q", d.Examples[0]))
		}
		if len(d.ExamplesHi) > 0 {
			sb.WriteString(fmt.Sprintf(" / %q", d.ExamplesHi[0]))
		}
		sb.WriteString("\n")
	}

	if !mem.Empty() {
		sb.WriteString("\nRECENTLY REFERENCED ENTITIES (most recent first):\n")
		for _, r := range mem.Refs {
			sb.WriteString(fmt.Sprintf("- %s %d\n", r.Entity, r.ID))
		}
	}

	sb.WriteString("\nRULES:\n")
	sb.WriteString("- Never invent action names. If nothing fits, return confidence 0 with any single step.\n")
	sb.WriteString("- Omit parameters you cannot read from the command. Never guess ids.\n")
	sb.WriteString("- For \"that order\", \"वो ऑर्डर\" and similar references, use the string \"" + refPrefix + "<entity>\" as the value.\n")
	sb.WriteString("- Compound commands (\"and\", \"then\", \"और\", \"फिर\") become several steps in order, ids s1, s2, ...\n")
	sb.WriteString("- A later step may reuse an earlier output with \"@results.s1.order_id\".\n\n")

	sb.WriteString("OUTPUT FORMAT:\n")
	sb.WriteString(`{"confidence":0.9,"steps":[{"action":"cancel_order","params":{"order_id":42}}]}` + "\n\n")
	sb.WriteString(fmt.Sprintf("User command: %q\n", text))
	sb.WriteString("JSON output: ")
	return sb.String()
}
