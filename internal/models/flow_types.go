// Package models defines flow type definitions to avoid circular imports.
package models

// FlowType names a conversational task.
type FlowType string

// StepType names a node within a flow.
type StepType string

// Intent is a closed-set classification label for user input.
type Intent string

// Flow type constants.
const (
	FlowMainMenu     FlowType = "main_menu"
	FlowIntake       FlowType = "intake"
	FlowAppointment  FlowType = "appointment"
	FlowDocument     FlowType = "document"
	FlowCaseStatus   FlowType = "case_status"
	FlowLegalInfo    FlowType = "legal_info"
	FlowServices     FlowType = "services"
	FlowTalkToLawyer FlowType = "talk_to_lawyer"
)

// Step constants. Several names are shared between flows; the pair
// (flow, step) is what selects a handler.
const (
	StepInit StepType = "init"
	StepShow StepType = "show"

	StepWelcomeChoice  StepType = "welcome_choice"
	StepQuickQuestion  StepType = "quick_question"
	StepAskName        StepType = "ask_name"
	StepConfirmName    StepType = "confirm_name"
	StepAskEmail       StepType = "ask_email"
	StepAskAddress     StepType = "ask_address"
	StepAskCaseType    StepType = "ask_case_type"
	StepAskDescription StepType = "ask_description"
	StepAskUrgency     StepType = "ask_urgency"
	StepConfirm        StepType = "confirm"

	StepAskType StepType = "ask_type"
	StepAskDate StepType = "ask_date"
	StepAskTime StepType = "ask_time"

	StepAwaitFile  StepType = "await_file"
	StepPostUpload StepType = "post_upload"

	StepAskOrList  StepType = "ask_or_list"
	StepSelectCase StepType = "select_case"
	StepAskNumber  StepType = "ask_number"
	StepPostView   StepType = "post_view"

	StepMenu         StepType = "menu"
	StepSearch       StepType = "search"
	StepInstitutions StepType = "institutions"
	StepPostTopic    StepType = "post_topic"
	StepPostCategory StepType = "post_category"

	StepWaiting StepType = "waiting"
)

// Intent constants.
const (
	IntentGreeting     Intent = "greeting"
	IntentMenu         Intent = "menu"
	IntentIntake       Intent = "intake"
	IntentAppointment  Intent = "appointment"
	IntentDocument     Intent = "document"
	IntentCaseStatus   Intent = "case_status"
	IntentLegalInfo    Intent = "legal_info"
	IntentServices     Intent = "services"
	IntentTalkToLawyer Intent = "talk_to_lawyer"
	IntentUrgent       Intent = "urgent"
	IntentHelp         Intent = "help"
	IntentGoodbye      Intent = "goodbye"
	IntentConfirmYes   Intent = "confirm_yes"
	IntentConfirmNo    Intent = "confirm_no"
	IntentSkip         Intent = "skip"
	IntentCasual       Intent = "casual"
	IntentRegister     Intent = "register"
	IntentUnknown      Intent = "unknown"
)

// AllIntents lists every label of the closed set.
var AllIntents = []Intent{
	IntentGreeting, IntentMenu, IntentIntake, IntentAppointment, IntentDocument,
	IntentCaseStatus, IntentLegalInfo, IntentServices, IntentTalkToLawyer,
	IntentUrgent, IntentHelp, IntentGoodbye, IntentConfirmYes, IntentConfirmNo,
	IntentSkip, IntentCasual, IntentRegister, IntentUnknown,
}

// IsValidIntent checks if the given label belongs to the closed set.
func IsValidIntent(i Intent) bool {
	for _, known := range AllIntents {
		if known == i {
			return true
		}
	}
	return false
}

// IsValidFlowType checks if the given flow type is supported.
func IsValidFlowType(f FlowType) bool {
	switch f {
	case FlowMainMenu, FlowIntake, FlowAppointment, FlowDocument,
		FlowCaseStatus, FlowLegalInfo, FlowServices, FlowTalkToLawyer:
		return true
	default:
		return false
	}
}
