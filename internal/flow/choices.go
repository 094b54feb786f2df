package flow

import (
	"strconv"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
)

// listFooter is shown under every interactive list.
const listFooter = "Gurú Soluciones"

const mainMenuListBody = "🦉 *Menú Principal — Gurú Soluciones*\n\n¿En qué puedo orientarle?"

func list(body, button, section string, rows ...models.Row) *models.Choices {
	return &models.Choices{
		Body:       body,
		ButtonText: button,
		Footer:     listFooter,
		Sections:   []models.Section{{Title: section, Rows: rows}},
	}
}

func row(id, title string, desc ...string) models.Row {
	r := models.Row{Title: title, RowID: id}
	if len(desc) > 0 {
		r.Description = desc[0]
	}
	return r
}

func mainMenuList(body string) *models.Choices {
	return list(body, "Ver opciones", "Servicios",
		row("1", "Nueva consulta legal", "Iniciar un caso o consulta"),
		row("2", "Agendar una cita", "Programar cita con abogado"),
		row("3", "Enviar documentos", "Subir documentos al sistema"),
		row("4", "Estado de mi caso", "Consultar expediente activo"),
		row("5", "Información legal (RD)", "Leyes y normativas"),
		row("6", "Servicios y precios", "Tarifario de servicios"),
		row("7", "Hablar con un abogado", "Contactar a un profesional"),
		row("0", "Finalizar conversación", "Cerrar esta sesión"),
	)
}

func caseTypeList(body string) *models.Choices {
	return list(body, "Seleccionar tipo", "Áreas del Derecho",
		row("1", "Derecho Civil"),
		row("2", "Derecho Penal"),
		row("3", "Derecho de Familia"),
		row("4", "Derecho Laboral"),
		row("5", "Derecho Mercantil", "Comercial y societario"),
		row("6", "Derecho Inmobiliario"),
		row("7", "Derecho Tributario", "Fiscal"),
		row("8", "Derecho Migratorio"),
		row("9", "Otro"),
	)
}

func urgencyList(body string) *models.Choices {
	return list(body, "Seleccionar urgencia", "Nivel de urgencia",
		row("1", "Urgente", "Requiere atención inmediata"),
		row("2", "Moderado", "Dentro de los próximos días"),
		row("3", "Normal", "Sin prisa, consulta general"),
	)
}

func intakeConfirmList(d models.IntakeData) *models.Choices {
	return list(intakeSummary(d), "Confirmar datos", "Opciones",
		row("1", "Sí, confirmar"),
		row("2", "No, deseo corregir"),
	)
}

func appointmentTypeList() *models.Choices {
	return list("📅 *Agendar Cita*\n\n¿Qué tipo de cita desea agendar?", "Seleccionar tipo", "Tipos de cita",
		row("1", "Consulta inicial"),
		row("2", "Seguimiento de caso"),
		row("3", "Revisión de documentos"),
		row("4", "Audiencia / Preparación"),
	)
}

func appointmentSlotsList(date string, slots []string) *models.Choices {
	rows := make([]models.Row, len(slots))
	for i, s := range slots {
		rows[i] = row(strconv.Itoa(i+1), s+" hrs")
	}
	return list(appointmentSlotsHeader(date), "Seleccionar horario", "Horarios disponibles", rows...)
}

func appointmentConfirmList(d models.AppointmentData) *models.Choices {
	return list(appointmentSummary(d), "Confirmar cita", "Opciones",
		row("1", "Sí, confirmar"),
		row("2", "No, elegir otro horario"),
	)
}

func documentTypeList() *models.Choices {
	return list("📎 *Envío de Documentos*\n\n¿Qué tipo de documento desea enviar?", "Seleccionar tipo", "Tipos de documento",
		row("1", "Cédula / Pasaporte", "Documento de identidad"),
		row("2", "Comprobante de domicilio"),
		row("3", "Contrato o acuerdo"),
		row("4", "Poder notarial"),
		row("5", "Acta del Estado Civil", "Nacimiento, matrimonio, etc."),
		row("6", "Documento judicial", "Certificado de Título, etc."),
		row("7", "Otro documento"),
	)
}

func documentReceivedList(id int64) *models.Choices {
	body := "✅ Documento recibido correctamente.\n\n📋 *Referencia:* " + documentReference(id) + "\n\nNuestro equipo revisará el documento."
	return list(body, "Elegir acción", "Opciones",
		row("1", "Enviar otro documento"),
		row("2", "Regresar al menú"),
	)
}

func postCaseViewList() *models.Choices {
	return list("¿Desea realizar alguna otra consulta?", "Elegir acción", "Opciones",
		row("1", "Consultar otro expediente"),
		row("2", "Regresar al menú principal"),
	)
}

func caseList(cases []models.Case) *models.Choices {
	rows := make([]models.Row, len(cases))
	for i, c := range cases {
		rows[i] = row(strconv.Itoa(i+1), c.CaseNumber, c.Title+" — "+StatusLabel(c.Status))
	}
	return list("📂 *Sus expedientes activos:*", "Seleccionar expediente", "Expedientes", rows...)
}

// withMenu appends the main menu to prefix, in both renderings.
func withMenu(prefix string) models.Reply {
	if prefix == "" {
		return models.ListReply(msgMainMenu, mainMenuList(mainMenuListBody))
	}
	return models.ListReply(prefix+"\n\n"+msgMainMenu, mainMenuList(prefix+"\n\n"+mainMenuListBody))
}
