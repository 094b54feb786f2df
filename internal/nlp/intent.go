package nlp

import (
	"regexp"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

type intentPattern struct {
	intent   models.Intent
	patterns []*regexp.Regexp
}

// intentTable is evaluated in order against normalized text; the first match
// wins, so the position of an entry is its priority.
var intentTable = []intentPattern{
	{models.IntentGreeting, compile(
		`\b(hola|buenos?\s*dias?|buenas?\s*tardes?|buenas?\s*noches?|saludos?|que\s*tal|hey|klk|dime)\b`,
	)},
	{models.IntentMenu, compile(
		`\b(menu|inicio|principal|regresar|volver|opciones)\b`,
	)},
	{models.IntentIntake, compile(
		`\b(consulta|asesoria|nuevo\s*caso|registrar|necesito\s*ayuda|problema\s*legal|abogado)\b`,
		`\b(demanda|denuncia|quiero\s*demandar|me\s*demandaron|asunto\s*legal)\b`,
	)},
	{models.IntentAppointment, compile(
		`\b(cita|agendar|agenda|programar|horario|disponibilidad|reunion|visita)\b`,
	)},
	{models.IntentDocument, compile(
		`\b(documento|documentos?|archivo|enviar\s*archivo|subir|adjuntar|papel|papeles)\b`,
		`\b(cedula|pasaporte|acta|contrato|poder\s*notarial|comprobante|certificado\s*de\s*titulo)\b`,
		`\b(redaccion|redactar|elaborar\s*documento)\b`,
	)},
	{models.IntentCaseStatus, compile(
		`\b(estado|estatus|expediente|caso|seguimiento|avance|como\s*va)\b`,
		`\b(consultar\s*caso|mi\s*caso|numero\s*de\s*caso)\b`,
	)},
	{models.IntentLegalInfo, compile(
		`\b(informacion\s*legal|ley|leyes|codigo|articulo|legislacion)\b`,
		`\b(interdiccion|concubinato|poder\s*notarial|notoriedad|anticresis|prenda)\b`,
		`\b(divorcio|venta\s*inmueble|venta\s*vehiculo|notificacion\s*legal|citacion)\b`,
		`\b(que\s*dice\s*la\s*ley|base\s*legal|fundamento|marco\s*legal)\b`,
		`\b(institucion|gobierno|dgii|jce|catastro|registro\s*inmobiliario|migracion)\b`,
	)},
	{models.IntentServices, compile(
		`\b(servicio|servicios|precio|precios|tarifa|tarifario|costo|cuanto\s*cuesta|cuanto\s*vale)\b`,
		`\b(fotocopia|impresion|impresiones|diseno|materiales|oficina)\b`,
	)},
	{models.IntentTalkToLawyer, compile(
		`\b(hablar|comunicar|contactar|llamar|asesor|licenciado)\b`,
		`\b(persona\s*real|humano|atencion\s*personal)\b`,
	)},
	{models.IntentUrgent, compile(
		`\b(urgente|emergencia|inmediato|ahora\s*mismo|lo\s*antes\s*posible|cuanto\s*antes)\b`,
	)},
	{models.IntentHelp, compile(
		`\b(ayuda|help|asistencia|no\s*entiendo|como\s*funciona|instrucciones)\b`,
	)},
	{models.IntentGoodbye, compile(
		`\b(salir|adios|hasta\s*luego|gracias|terminar|finalizar|chao|bye)\b`,
	)},
	{models.IntentConfirmYes, compile(
		`^(1|si|sí|correcto|confirmo|confirmar|de\s*acuerdo|ok|vale|afirmativo)$`,
	)},
	{models.IntentConfirmNo, compile(
		`^(2|no|incorrecto|cancelar|corregir|cambiar|negativo)$`,
	)},
	{models.IntentSkip, compile(
		`^(omitir|saltar|skip|no\s*tengo|prefiero\s*no)$`,
	)},
	{models.IntentRegister, compile(
		`\b(registrar|registrarme|inscribir|darme\s*de\s*alta|crear\s*cuenta)\b`,
	)},
	{models.IntentCasual, compile(
		`\b(jaja|haha|lol|jejeje|xd|jeje)\b`,
		`^(ok|ah|oh|wow|dale|bien|genial|excelente|perfecto|tranqui|bregamos|listo)$`,
	)},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// MatchIntent returns the first intent of the ordered table matching the
// normalized text, or IntentUnknown.
func MatchIntent(text string) models.Intent {
	n := Normalize(text)
	for _, entry := range intentTable {
		for _, p := range entry.patterns {
			if p.MatchString(n) {
				return entry.intent
			}
		}
	}
	return models.IntentUnknown
}

// IsGlobalCommand reports whether an intent overrides whatever flow is active.
func IsGlobalCommand(i models.Intent) bool {
	return i == models.IntentMenu || i == models.IntentHelp || i == models.IntentGoodbye
}

type topicPattern struct {
	topic   string
	pattern *regexp.Regexp
}

var legalTopicTable = []topicPattern{
	{"civil", regexp.MustCompile(`\b(civil|propiedad|herencia|sucesion|arrendamiento|contrato|deuda|cobro|dano|indemnizacion|interdiccion|anticresis|prenda)\b`)},
	{"penal", regexp.MustCompile(`\b(penal|delito|crimen|robo|fraude|lesiones|homicidio|denuncia|ministerio\s*publico|fiscalia|procuraduria|carpeta)\b`)},
	{"familiar", regexp.MustCompile(`\b(familiar|familia|divorcio|custodia|pension\s*alimenticia|alimentos|matrimonio|adopcion|guarda|concubinato|union\s*libre)\b`)},
	{"laboral", regexp.MustCompile(`\b(laboral|trabajo|despido|liquidacion|prestaciones|patron|empleador|codigo\s*de\s*trabajo|salario|sueldo|ministerio\s*de\s*trabajo)\b`)},
	{"mercantil", regexp.MustCompile(`\b(mercantil|sociedad|empresa|comercial|quiebra|registro\s*mercantil|pagare|cheque|letra\s*de\s*cambio)\b`)},
	{"inmobiliario", regexp.MustCompile(`\b(inmobiliario|inmueble|titulo|certificado\s*de\s*titulo|registro\s*de\s*titulos|deslinde|catastro|ley\s*108|solar|terreno|apartamento|casa)\b`)},
	{"fiscal", regexp.MustCompile(`\b(fiscal|impuesto|dgii|tributario|itbis|isr|contribucion|declaracion|transferencia\s*inmobiliaria)\b`)},
	{"migratorio", regexp.MustCompile(`\b(migratorio|migracion|visa|residencia|pasaporte|extranjero|permiso\s*de\s*trabajo|estatus\s*migratorio)\b`)},
	{"notarial", regexp.MustCompile(`\b(notarial|notario|acto\s*autentico|fe\s*publica|legalizacion|apostilla|ley\s*140|poder|acto\s*de\s*notoriedad)\b`)},
}

// DetectLegalTopic returns the first legal area mentioned in the text, or "".
func DetectLegalTopic(text string) string {
	n := Normalize(text)
	for _, entry := range legalTopicTable {
		if entry.pattern.MatchString(n) {
			return entry.topic
		}
	}
	return ""
}

var escapeRegex = regexp.MustCompile(`\b(no quiero|cancelar|no necesito|no deseo|dejame|dejar|volver al menu|regresar al menu|no gracias|parar|detener|ya no|no me interesa)\b`)

// IsEscape reports whether the contact is trying to abandon a data-collection step.
func IsEscape(text string) bool {
	return escapeRegex.MatchString(Normalize(text))
}

var (
	questionMarkRegex   = regexp.MustCompile(`[?¿]`)
	nameQuestionRegex   = regexp.MustCompile(`^(que|por ?que|para que|como|cuando|donde|cual|quien|necesito|quiero|ayuda)`)
	answerQuestionRegex = regexp.MustCompile(`^(que|por ?que|para que|como|necesito|quiero|ayuda|no entiendo)`)
)

// LooksLikeQuestionForName detects a question typed where a name was expected.
func LooksLikeQuestionForName(text string) bool {
	return questionMarkRegex.MatchString(text) || nameQuestionRegex.MatchString(Normalize(text))
}

// LooksLikeQuestion detects a question typed where an answer was expected.
func LooksLikeQuestion(text string) bool {
	return questionMarkRegex.MatchString(text) || answerQuestionRegex.MatchString(Normalize(text))
}
