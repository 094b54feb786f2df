package flow

import (
	"fmt"
	"strings"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// Static replies, in formal Dominican Spanish.
const (
	msgWelcomeNewShort = "🦉 ¡Saludos! Soy *El Gurú*, su sabio búho legal de *Gurú Soluciones*.\n\n" +
		"Estoy aquí para ayudarle con cualquier asunto legal o servicio. ¿En qué puedo orientarle?"

	msgMainMenu = "🦉 *Menú Principal — Gurú Soluciones*\n\n" +
		"¿En qué puedo orientarle?\n\n" +
		"1️⃣ Nueva consulta legal\n" +
		"2️⃣ Agendar una cita\n" +
		"3️⃣ Enviar documentos\n" +
		"4️⃣ Consultar estado de mi caso\n" +
		"5️⃣ Información legal (Leyes RD)\n" +
		"6️⃣ Servicios y precios\n" +
		"7️⃣ Hablar con un abogado\n" +
		"0️⃣ Finalizar conversación"

	msgInvalidOption = "Disculpe, no he comprendido su selección. Por favor, elija una de las opciones indicadas con el número correspondiente."

	msgIntakeAskName = "Para iniciar su registro, por favor indíquenos su *nombre completo* tal como aparece en su cédula de identidad."

	msgIntakeAskEmail = "Gracias. Ahora, ¿podría proporcionarnos su *correo electrónico* para enviarle información relevante?\n\n" +
		"(Escriba \"omitir\" si prefiere no proporcionarlo)"

	msgIntakeAskAddress = "¿Cuál es su *domicilio* actual?\n\n" +
		"(Escriba \"omitir\" si prefiere no proporcionarlo en este momento)"

	msgIntakeAskCaseType = "¿Qué *tipo de asunto legal* necesita atender?\n\n" +
		"1️⃣ Derecho Civil\n" +
		"2️⃣ Derecho Penal\n" +
		"3️⃣ Derecho de Familia\n" +
		"4️⃣ Derecho Laboral\n" +
		"5️⃣ Derecho Mercantil / Comercial\n" +
		"6️⃣ Derecho Inmobiliario\n" +
		"7️⃣ Derecho Tributario / Fiscal\n" +
		"8️⃣ Derecho Migratorio\n" +
		"9️⃣ Otro"

	msgIntakeAskDescription = "Por favor, describa brevemente su *situación legal*. Cuanta más información nos proporcione, mejor podremos orientarle."

	msgIntakeAskUrgency = "¿Cuál es el *nivel de urgencia* de su caso?\n\n" +
		"1️⃣ 🔴 Urgente — Requiere atención inmediata\n" +
		"2️⃣ 🟡 Moderado — Dentro de los próximos días\n" +
		"3️⃣ 🟢 Normal — Sin prisa, consulta general"

	msgIntakeQuickQuestion = "Con gusto le atendemos. Por favor, escriba su *consulta* y un abogado le responderá a la brevedad."

	msgIntakeQuickReceived = "Hemos recibido su consulta. Un miembro de nuestro equipo legal le responderá lo antes posible.\n\n" +
		"Si desea registrarse para un seguimiento más detallado, escriba *\"registrarme\"*."

	msgIntakeCancelled = "🦉 Entendido, hemos cancelado el proceso de registro. ¿En qué más puedo ayudarle?"

	msgRegisterHint = "\n\n_Si desea registrarse, escriba *\"registrarme\"*. Para ver opciones, escriba *\"menu\"*._"

	msgQuickRegisterHint = "\n\n_Si desea registrarse para seguimiento personalizado, escriba *\"registrarme\"*. Para ver opciones, escriba *\"menu\"*._"

	msgWelcomeChoiceOptions = "1️⃣ Registrarme para atención personalizada\n" +
		"2️⃣ Solo tengo una consulta rápida"

	msgAppointmentIntro = "📅 *Agendar Cita*\n\n¿Qué tipo de cita desea agendar?\n\n" +
		"1️⃣ Consulta inicial\n" +
		"2️⃣ Seguimiento de caso\n" +
		"3️⃣ Revisión de documentos\n" +
		"4️⃣ Audiencia / Preparación"

	msgAppointmentAskDate = "¿Para qué *fecha* desea agendar su cita?\n\n" +
		"Por favor, indique la fecha en formato *DD/MM/AAAA*\n" +
		"(Ejemplo: 15/03/2026)"

	msgAppointmentInvalidDate = "La fecha indicada no es válida o ya ha pasado. Por favor, ingrese una fecha futura en formato *DD/MM/AAAA*."

	msgAppointmentNoWeekend = "Lo sentimos, no atendemos los fines de semana. Por favor, seleccione un día de lunes a viernes."

	msgAppointmentNoSlots = "Lo sentimos, no hay horarios disponibles para la fecha seleccionada. Por favor, elija otra fecha."

	msgDocumentIntro = "📎 *Envío de Documentos*\n\n" +
		"¿Qué tipo de documento desea enviar?\n\n" +
		"1️⃣ Cédula de identidad / Pasaporte\n" +
		"2️⃣ Comprobante de domicilio\n" +
		"3️⃣ Contrato o acuerdo\n" +
		"4️⃣ Poder notarial\n" +
		"5️⃣ Acta del Estado Civil (nacimiento/matrimonio)\n" +
		"6️⃣ Documento judicial / Certificado de Título\n" +
		"7️⃣ Otro documento"

	msgDocumentAskDescription = "Por favor, proporcione una *breve descripción* del documento que va a enviar."

	msgDocumentAskFile = "Ahora, por favor *envíe el archivo* (imagen, PDF o documento).\n\n" +
		"⚠️ *Aviso de privacidad:* Sus documentos serán tratados con estricta confidencialidad conforme a la legislación vigente de protección de datos personales de la República Dominicana."

	msgDocumentInvalidFile = "No hemos podido recibir el archivo. Por favor, envíe un documento en formato *imagen, PDF o documento de texto*."

	msgDocumentCancelled = "Su envío de documentos ha sido cancelado. Puede enviarlos en cualquier momento desde el menú principal."

	msgStatusAskNumber = "🔍 *Consulta de Estado*\n\n" +
		"Por favor, ingrese su *número de expediente* para consultar el estado de su caso.\n\n" +
		"(Ejemplo: CASO-001)"

	msgStatusNotFound = "No se encontró ningún expediente con ese número. Por favor, verifique el número e intente nuevamente.\n\n" +
		"Si no recuerda su número de expediente, escriba *\"ayuda\"* y un asesor le asistirá."

	msgStatusNoCases = "No tiene expedientes registrados actualmente. Si desea iniciar una consulta legal, seleccione la opción 1 del menú principal."

	msgTalkToLawyer = "Un abogado de nuestro equipo se comunicará con usted a la brevedad.\n\n" +
		"⏰ Horario de atención: Lunes a Viernes, 9:00 a 18:00 hrs.\n\n" +
		"Si su asunto es urgente fuera de horario, por favor indíquelo escribiendo *\"urgente\"*."

	msgTalkToLawyerUrgent = "Hemos marcado su solicitud como *urgente*. Un abogado de guardia se pondrá en contacto con usted lo antes posible."

	msgLawyerForwarded = "Su mensaje ha sido enviado a nuestro equipo legal. Le contactaremos a la brevedad."

	msgGoodbye = "🦉 Gracias por comunicarse con *Gurú Soluciones*. Ha sido un placer asistirle.\n\n" +
		"Si necesita orientación legal en el futuro, no dude en escribirnos. ¡Que tenga un excelente día!"

	// ErrorGeneral is sent whenever processing fails unexpectedly.
	ErrorGeneral = "Disculpe, ha ocurrido un error en nuestro sistema. Por favor, intente nuevamente en unos momentos o comuníquese directamente a nuestras oficinas."

	msgHelp = "🦉 *Guía de El Gurú*\n\n" +
		"Puede utilizar los siguientes comandos en cualquier momento:\n\n" +
		"• *\"menu\"* — Regresar al menú principal\n" +
		"• *\"cita\"* — Agendar una cita\n" +
		"• *\"estado\"* — Consultar estado de caso\n" +
		"• *\"leyes\"* — Información legal RD\n" +
		"• *\"servicios\"* — Ver precios y servicios\n" +
		"• *\"ayuda\"* — Ver este mensaje\n" +
		"• *\"salir\"* — Finalizar conversación"

	msgPostTopicMenu = "¿Qué desea hacer?\n\n" +
		"1️⃣ Ver otros temas legales\n" +
		"2️⃣ Buscar otro tema\n" +
		"3️⃣ Regresar al menú principal"

	msgPostCategoryMenu = "¿Qué desea hacer?\n\n" +
		"1️⃣ Ver otra categoría\n" +
		"2️⃣ Regresar al menú principal"

	msgSearchPrompt      = "🔍 Escriba su *pregunta legal* o *tema de interés* y buscaremos en nuestra base de conocimientos."
	msgSearchAgainPrompt = "🔍 Escriba su *pregunta legal* o *tema de interés*."
	msgPickFromList      = "Por favor, seleccione un número válido de la lista."
)

func welcomeBack(name string) string {
	return fmt.Sprintf("🦉 ¡Bienvenido/a de nuevo, *%s*! Es un gusto verle por aquí.\n\n¿En qué podemos asistirle el día de hoy?", name)
}

// option is one numbered entry of a fixed catalog.
type option struct {
	code  string
	label string
}

type catalog []option

func (c catalog) lookup(code string) (string, bool) {
	code = strings.TrimSpace(code)
	for _, o := range c {
		if o.code == code {
			return o.label, true
		}
	}
	return "", false
}

var caseTypes = catalog{
	{"1", "Derecho Civil"},
	{"2", "Derecho Penal"},
	{"3", "Derecho de Familia"},
	{"4", "Derecho Laboral"},
	{"5", "Derecho Mercantil / Comercial"},
	{"6", "Derecho Inmobiliario"},
	{"7", "Derecho Tributario / Fiscal"},
	{"8", "Derecho Migratorio"},
	{"9", "Otro"},
}

var urgencyLevels = catalog{
	{"1", "Urgente"},
	{"2", "Moderado"},
	{"3", "Normal"},
}

var appointmentTypes = catalog{
	{"1", "Consulta inicial"},
	{"2", "Seguimiento de caso"},
	{"3", "Revisión de documentos"},
	{"4", "Audiencia / Preparación"},
}

var documentTypes = catalog{
	{"1", "Cédula de identidad / Pasaporte"},
	{"2", "Comprobante de domicilio"},
	{"3", "Contrato o acuerdo"},
	{"4", "Poder notarial"},
	{"5", "Acta del Estado Civil"},
	{"6", "Documento judicial / Certificado de Título"},
	{"7", "Otro documento"},
}

var statusLabels = map[models.CaseStatus]string{
	models.CaseStatusOpen:             "Abierto",
	models.CaseStatusInProgress:       "En trámite",
	models.CaseStatusPendingDocs:      "Pendiente de documentos",
	models.CaseStatusHearingScheduled: "Audiencia programada",
	models.CaseStatusResolved:         "Resuelto",
	models.CaseStatusClosed:           "Cerrado",
	models.CaseStatusArchived:         "Archivado",
}

// StatusLabel renders a case status in Spanish, falling back to the raw value.
func StatusLabel(s models.CaseStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func intakeSummary(d models.IntakeData) string {
	return "📝 *Resumen de su consulta:*\n\n" +
		"👤 Nombre: " + d.Name + "\n" +
		"📧 Correo: " + orDefault(d.Email, "No proporcionado") + "\n" +
		"📍 Domicilio: " + orDefault(d.Address, "No proporcionado") + "\n" +
		"⚖️ Área legal: " + d.CaseType + "\n" +
		"📄 Descripción: " + d.Description + "\n" +
		"🚨 Urgencia: " + d.Urgency
}

func intakeConfirm(d models.IntakeData) string {
	return intakeSummary(d) + "\n\n¿Los datos son correctos?\n\n1️⃣ Sí, confirmar\n2️⃣ No, deseo corregir"
}

func intakeSuccess(caseNumber string) string {
	return "✅ Su consulta ha sido registrada exitosamente.\n\n" +
		"📋 *Número de expediente:* " + caseNumber + "\n\n" +
		"Un abogado especializado revisará su caso y se pondrá en contacto con usted a la brevedad.\n\n" +
		"Guarde su número de expediente para futuras consultas."
}

func appointmentSlotsHeader(date string) string {
	return "📅 Horarios disponibles para el *" + date + "*:"
}

func appointmentSlots(date string, slots []string) string {
	lines := make([]string, len(slots))
	for i, s := range slots {
		lines[i] = knowledge.NumLabel(i+1) + " " + s + " hrs"
	}
	return appointmentSlotsHeader(date) + "\n\n" + strings.Join(lines, "\n") +
		"\n\nSeleccione el número del horario deseado."
}

func appointmentSummary(d models.AppointmentData) string {
	return "📅 *Confirmación de Cita:*\n\n" +
		"📌 Tipo: " + d.Type + "\n" +
		"📆 Fecha: " + d.DatePretty + "\n" +
		"🕐 Hora: " + d.Time + " hrs\n" +
		fmt.Sprintf("⏱️ Duración estimada: %d minutos", d.DurationMin)
}

func appointmentConfirm(d models.AppointmentData) string {
	return appointmentSummary(d) + "\n\n¿Confirma esta cita?\n\n1️⃣ Sí, confirmar\n2️⃣ No, elegir otro horario"
}

func appointmentSuccess(d models.AppointmentData) string {
	return "✅ Su cita ha sido agendada exitosamente.\n\n" +
		"📆 " + d.DatePretty + " a las " + d.Time + " hrs\n\n" +
		"Le enviaremos un recordatorio antes de su cita. Si necesita cancelar o reagendar, no dude en comunicarse con nosotros."
}

func documentReference(id int64) string {
	return fmt.Sprintf("DOC-%d", id)
}

func documentReceived(id int64) string {
	return "✅ Documento recibido correctamente.\n\n" +
		"📋 *Referencia:* " + documentReference(id) + "\n\n" +
		"Nuestro equipo revisará el documento y le notificará si se requiere información adicional.\n\n" +
		"¿Desea enviar otro documento?\n\n" +
		"1️⃣ Sí, enviar otro\n" +
		"2️⃣ No, regresar al menú"
}

func statusFound(c *models.Case) string {
	hearing := "Sin fecha programada"
	if c.NextHearing != nil {
		hearing = nlp.FormatDateES(*c.NextHearing)
	}
	return "📋 *Estado de su Expediente*\n\n" +
		"📁 Expediente: " + c.CaseNumber + "\n" +
		"📌 Asunto: " + c.Title + "\n" +
		"⚖️ Tipo: " + orDefault(c.CaseType, "No especificado") + "\n" +
		"📊 Estado: " + StatusLabel(c.Status) + "\n" +
		"🏛️ Tribunal: " + orDefault(c.Court, "Pendiente de asignar") + "\n" +
		"📅 Próxima audiencia: " + hearing + "\n\n" +
		"¿Desea realizar alguna otra consulta?\n\n" +
		"1️⃣ Consultar otro expediente\n" +
		"2️⃣ Regresar al menú principal"
}

func statusList(cases []models.Case) string {
	entries := make([]string, len(cases))
	for i, c := range cases {
		entries[i] = fmt.Sprintf("%s *%s* — %s\n   Estado: %s", knowledge.NumLabel(i+1), c.CaseNumber, c.Title, StatusLabel(c.Status))
	}
	return "📂 *Sus expedientes activos:*\n\n" + strings.Join(entries, "\n\n") +
		"\n\nIngrese el número de expediente que desea consultar, o escriba *\"menu\"* para regresar."
}

func noSearchResults(query string) string {
	return fmt.Sprintf("No encontramos resultados para \"%s\".\n\n", query) +
		"Le recomendamos seleccionar un tema del menú o comunicarse con uno de nuestros abogados para una consulta personalizada.\n\n" +
		msgPostTopicMenu
}
