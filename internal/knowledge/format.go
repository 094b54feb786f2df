package knowledge

import (
	"fmt"
	"regexp"
	"strings"
)

// NumLabel renders a menu number: keycap emoji up to 9, "*n.*" beyond.
func NumLabel(n int) string {
	if n == 0 {
		return "0️⃣"
	}
	if n <= 9 {
		return fmt.Sprintf("%d️⃣", n)
	}
	return fmt.Sprintf("*%d.*", n)
}

// FormatTopic renders a topic with its legal basis.
func FormatTopic(t Topic) string {
	return t.Content + "\n\n📚 *Base legal:* " + strings.Join(t.LawRefs, ", ")
}

// FormatInstitution renders an institution card.
func FormatInstitution(in Institution) string {
	return fmt.Sprintf("🏛️ *%s*\n\n%s\n\n🔗 %s", in.Name, in.Description, in.URL)
}

// FormatResults renders at most max results separated by blank lines.
func FormatResults(results []Result, max int) string {
	if len(results) == 0 {
		return ""
	}
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		switch r.Kind {
		case ResultTopic:
			parts = append(parts, FormatTopic(*r.Topic))
		case ResultInstitution:
			parts = append(parts, FormatInstitution(*r.Institution))
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

var markupRegex = regexp.MustCompile(`[*_]`)

// StripMarkup removes WhatsApp bold and italic markers.
func StripMarkup(s string) string {
	return markupRegex.ReplaceAllString(s, "")
}

// ContextFor renders a search result as plain context for the language model.
func ContextFor(r Result) string {
	switch r.Kind {
	case ResultTopic:
		return StripMarkup(r.Topic.Content) + " Base legal: " + strings.Join(r.Topic.LawRefs, ", ")
	case ResultInstitution:
		return fmt.Sprintf("%s: %s. URL: %s", r.Institution.Name, r.Institution.Description, r.Institution.URL)
	}
	return ""
}

// TopicMenu renders the legal topic menu. Options 10 and 11 lead to the
// institutions list and keyword search.
func (b *Base) TopicMenu() string {
	var sb strings.Builder
	sb.WriteString("📚 *Base de Conocimientos Legales — República Dominicana*\n\n")
	sb.WriteString("Seleccione un tema para obtener información detallada:\n\n")
	for i, t := range b.topics {
		fmt.Fprintf(&sb, "%s %s\n", NumLabel(i+1), t.MenuLabel)
	}
	fmt.Fprintf(&sb, "\n%s Instituciones gubernamentales y enlaces útiles\n", NumLabel(10))
	fmt.Fprintf(&sb, "%s Buscar por palabra clave\n", NumLabel(11))
	sb.WriteString("0️⃣ Regresar al menú principal")
	return sb.String()
}

// InstitutionsMenu renders the numbered institution list.
func (b *Base) InstitutionsMenu() string {
	var sb strings.Builder
	sb.WriteString("🏛️ *Instituciones y Enlaces Útiles — RD*\n\n")
	for i, in := range b.institutions {
		fmt.Fprintf(&sb, "%s %s\n", NumLabel(i+1), in.Name)
	}
	sb.WriteString("\n0️⃣ Regresar al menú de temas")
	return sb.String()
}

// FormatPrice renders the price of an item for display.
func FormatPrice(p Prices) string {
	switch {
	case p.Rango != "":
		return "RD$" + p.Rango
	case p.Unico != 0:
		return fmt.Sprintf("RD$%d", p.Unico)
	case p.Unidad != 0:
		return fmt.Sprintf("RD$%d/u", p.Unidad)
	}
	var parts []string
	if p.Letter != 0 {
		parts = append(parts, fmt.Sprintf("8.5x11: RD$%d", p.Letter))
	}
	if p.Legal != 0 {
		parts = append(parts, fmt.Sprintf("8.5x14: RD$%d", p.Legal))
	}
	if p.Tabloid != 0 {
		parts = append(parts, fmt.Sprintf("11x17: RD$%d", p.Tabloid))
	}
	return strings.Join(parts, " | ")
}

// PriceEntries lists every price of an item as "label: RD$n".
func PriceEntries(p Prices) string {
	var parts []string
	add := func(label string, v int) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%s: RD$%d", label, v))
		}
	}
	if p.Rango != "" {
		parts = append(parts, "rango: RD$"+p.Rango)
	}
	add("unico", p.Unico)
	add("unidad", p.Unidad)
	add("paquete", p.Paquete)
	add("8x11", p.Letter)
	add("8x14", p.Legal)
	add("11x17", p.Tabloid)
	return strings.Join(parts, ", ")
}

// FormatCategory renders a category and its priced items.
func FormatCategory(c Category) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s*\n\n", c.Emoji, c.Name)
	for _, item := range c.Items {
		sb.WriteString("• " + item.Name)
		if item.Desc != "" {
			fmt.Fprintf(&sb, " _(%s)_", item.Desc)
		}
		sb.WriteString(": " + FormatPrice(item.Prices) + "\n")
	}
	return sb.String()
}

// FormatAllCategories renders the price-list menu, numbered in MenuCategories order.
func (b *Base) FormatAllCategories() string {
	var sb strings.Builder
	sb.WriteString("⚖️ *Tarifario de Servicios — Gurú Soluciones*\n\n")
	sb.WriteString("Todos los precios en pesos dominicanos (RD$).\n\n")
	sb.WriteString("📜 *Servicios Legales:*\n")

	n := 0
	for _, c := range b.categories {
		if c.Legal {
			n++
			fmt.Fprintf(&sb, "%s %s %s\n", NumLabel(n), c.Emoji, c.Name)
		}
	}
	sb.WriteString("\n🏪 *Servicios de Oficina:*\n")
	for _, c := range b.categories {
		if !c.Legal {
			n++
			fmt.Fprintf(&sb, "%s %s %s\n", NumLabel(n), c.Emoji, c.Name)
		}
	}
	sb.WriteString("\n0️⃣ Regresar al menú principal")
	sb.WriteString("\n\nSeleccione un número para ver los precios detallados.")
	return sb.String()
}

// PromptAppendix renders the whole corpus as plain reference text for the
// language model's system instructions.
func (b *Base) PromptAppendix() string {
	var sb strings.Builder
	sb.WriteString("TEMAS LEGALES QUE CONOCES EN DETALLE:\n\n")
	for _, t := range b.topics {
		fmt.Fprintf(&sb, "--- %s ---\n%s\n", t.Title, StripMarkup(t.Content))
		if len(t.LawRefs) > 0 {
			fmt.Fprintf(&sb, "Base legal: %s\n", strings.Join(t.LawRefs, ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nINSTITUCIONES GUBERNAMENTALES DE RD:\n\n")
	for _, in := range b.institutions {
		fmt.Fprintf(&sb, "- %s: %s | URL: %s\n", in.Name, in.Description, in.URL)
	}

	sb.WriteString("\nSERVICIOS Y PRECIOS DE GURÚ SOLUCIONES (RD$):\n\n")
	writeCategories := func(header string, legal bool) {
		wrote := false
		for _, c := range b.categories {
			if c.Legal != legal {
				continue
			}
			if !wrote {
				sb.WriteString(header)
				wrote = true
			}
			fmt.Fprintf(&sb, "*%s*:\n", c.Name)
			for _, item := range c.Items {
				fmt.Fprintf(&sb, "  - %s: %s\n", item.Name, PriceEntries(item.Prices))
			}
			sb.WriteString("\n")
		}
	}
	writeCategories("--- SERVICIOS LEGALES ---\n\n", true)
	writeCategories("--- SERVICIOS DE OFICINA ---\n\n", false)

	sb.WriteString(`NOTAS IMPORTANTES SOBRE PRECIOS:
- Los precios de contratos "bajo firma privada" no incluyen la legalización notarial
- Los contratos "auténticos" ya incluyen la certificación del notario
- La legalización de firma en la Procuraduría General cuesta RD$ 700 adicional cuando aplica
- Los impuestos de transferencia (DGII) son costos separados que paga el cliente directamente
- Todos los precios están en Pesos Dominicanos (RD$)
`)
	return sb.String()
}
