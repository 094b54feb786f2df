package knowledge

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedCorpus(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(b.Topics()); got != 9 {
		t.Errorf("expected 9 topics, got %d", got)
	}
	if got := len(b.Institutions()); got != 19 {
		t.Errorf("expected 19 institutions, got %d", got)
	}
	if got := len(b.MenuCategories()); got != 14 {
		t.Errorf("expected 14 categories, got %d", got)
	}
	if _, ok := b.Topic("divorcio"); !ok {
		t.Error("expected divorcio topic")
	}
	if _, ok := b.Institution("dgii"); !ok {
		t.Error("expected dgii institution")
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, err := Parse([]byte("services: []\n")); err == nil {
		t.Error("expected error for empty corpus")
	}
	if _, err := Parse([]byte("topics: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSearchRanksTitleMatches(t *testing.T) {
	b := MustLoad()
	results := b.Search("¿Cómo funciona el divorcio?")
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Kind != ResultTopic || results[0].Key != "divorcio" {
		t.Errorf("expected divorcio first, got %s/%s", results[0].Kind, results[0].Key)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted at %d", i)
		}
	}
}

func TestSearchIgnoresShortWords(t *testing.T) {
	b := MustLoad()
	if got := b.Search("de la y"); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
	if got := b.Search("xyzzyq"); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestSearchFindsInstitutions(t *testing.T) {
	b := MustLoad()
	results := b.Search("pasaporte")
	found := false
	for _, r := range results {
		if r.Kind == ResultInstitution && r.Key == "migracion" {
			found = true
		}
	}
	if !found {
		t.Error("expected migracion among results")
	}
}

func TestFormatResults(t *testing.T) {
	b := MustLoad()
	if got := FormatResults(nil, 2); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	results := b.Search("divorcio separacion custodia")
	out := FormatResults(results, 1)
	if !strings.Contains(out, "📚 *Base legal:*") {
		t.Errorf("expected legal basis footer, got %q", out)
	}
	if strings.Count(out, "📚 *Base legal:*") != 1 {
		t.Error("expected a single rendered result")
	}
}

func TestFormatInstitution(t *testing.T) {
	in := Institution{Name: "DGII", Description: "Impuestos", URL: "https://dgii.gov.do"}
	want := "🏛️ *DGII*\n\nImpuestos\n\n🔗 https://dgii.gov.do"
	if got := FormatInstitution(in); got != want {
		t.Errorf("FormatInstitution = %q, want %q", got, want)
	}
}

func TestNumLabel(t *testing.T) {
	tests := map[int]string{0: "0️⃣", 3: "3️⃣", 9: "9️⃣", 10: "*10.*", 14: "*14.*"}
	for n, want := range tests {
		if got := NumLabel(n); got != want {
			t.Errorf("NumLabel(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		p    Prices
		want string
	}{
		{Prices{Rango: "250 - 300"}, "RD$250 - 300"},
		{Prices{Unico: 500}, "RD$500"},
		{Prices{Unidad: 2, Paquete: 5}, "RD$2/u"},
		{Prices{Letter: 3, Legal: 10, Tabloid: 25}, "8.5x11: RD$3 | 8.5x14: RD$10 | 11x17: RD$25"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.p); got != tt.want {
			t.Errorf("FormatPrice(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestFormatCategory(t *testing.T) {
	c := Category{Name: "Poderes", Emoji: "✍️", Items: []ServiceItem{
		{Name: "Poder Especial", Desc: "Bajo firma privada", Prices: Prices{Unico: 300}},
		{Name: "Sello", Prices: Prices{Unidad: 5}},
	}}
	want := "✍️ *Poderes*\n\n• Poder Especial _(Bajo firma privada)_: RD$300\n• Sello: RD$5/u\n"
	if got := FormatCategory(c); got != want {
		t.Errorf("FormatCategory = %q, want %q", got, want)
	}
}

func TestFormatAllCategoriesNumbering(t *testing.T) {
	b := MustLoad()
	out := b.FormatAllCategories()
	if !strings.HasPrefix(out, "⚖️ *Tarifario de Servicios — Gurú Soluciones*") {
		t.Errorf("unexpected header: %q", out[:40])
	}
	if !strings.Contains(out, "*11.* 🖨️") && !strings.Contains(out, "*11.* ") {
		t.Error("expected office services to continue numbering at 11")
	}
	if !strings.HasSuffix(out, "Seleccione un número para ver los precios detallados.") {
		t.Error("unexpected footer")
	}
}

func TestMenus(t *testing.T) {
	b := MustLoad()
	topics := b.TopicMenu()
	if !strings.Contains(topics, "1️⃣ Interdicción en contratos") {
		t.Errorf("topic menu missing first label: %q", topics)
	}
	if !strings.Contains(topics, "*11.* Buscar por palabra clave") {
		t.Error("topic menu missing search option")
	}
	inst := b.InstitutionsMenu()
	if !strings.Contains(inst, "*19.* ") || !strings.HasSuffix(inst, "0️⃣ Regresar al menú de temas") {
		t.Errorf("unexpected institutions menu: %q", inst)
	}
}

func TestPromptAppendix(t *testing.T) {
	b := MustLoad()
	out := b.PromptAppendix()
	for _, want := range []string{
		"TEMAS LEGALES QUE CONOCES EN DETALLE:",
		"--- Divorcio por Mutuo Consentimiento ---",
		"INSTITUCIONES GUBERNAMENTALES DE RD:",
		"--- SERVICIOS LEGALES ---",
		"--- SERVICIOS DE OFICINA ---",
		"NOTAS IMPORTANTES SOBRE PRECIOS:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("appendix missing %q", want)
		}
	}
	if strings.Contains(out, "**") {
		t.Error("topic markup should be stripped")
	}
}

func TestContextFor(t *testing.T) {
	r := Result{Kind: ResultInstitution, Institution: &Institution{Name: "JCE", Description: "Registro civil", URL: "https://jce.gob.do"}}
	if got := ContextFor(r); got != "JCE: Registro civil. URL: https://jce.gob.do" {
		t.Errorf("ContextFor = %q", got)
	}
}
