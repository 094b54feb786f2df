// Package flow is the conversation engine: a router in front of one state
// machine per conversational task, an intent classifier cascade and the
// smart fallback used when no flow claims a message.
package flow

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/genai"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/session"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
)

// Records is the persistence surface the flows write to.
type Records interface {
	store.ContactRepo
	store.CaseRepo
	store.AppointmentRepo
	store.DocumentRepo
	store.MessageRepo
	store.MediaRepo
}

// Input is one inbound message as seen by a flow.
type Input struct {
	Session *models.Session
	Text    string
	Env     models.Envelope
	Media   *models.MediaResult
}

// Opts holds optional router dependencies.
type Opts struct {
	Generator *genai.Client
	Knowledge *knowledge.Base
}

// Option modifies router options.
type Option func(*Opts)

// WithGenerator enables model-backed replies. Without it every model tier
// is skipped.
func WithGenerator(c *genai.Client) Option {
	return func(o *Opts) {
		o.Generator = c
	}
}

// WithKnowledge overrides the embedded legal corpus.
func WithKnowledge(kb *knowledge.Base) Option {
	return func(o *Opts) {
		o.Knowledge = kb
	}
}

// Router owns the flow registry and dispatches every message to the flow
// its session is in.
type Router struct {
	sessions   *session.Manager
	records    Records
	gen        *genai.Client
	kb         *knowledge.Base
	classifier *Classifier
	machines   map[models.FlowType]*machine
	caseSeq    atomic.Int64
}

// NewRouter builds the engine and registers every flow.
func NewRouter(sessions *session.Manager, records Records, opts ...Option) *Router {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Knowledge == nil {
		cfg.Knowledge = knowledge.MustLoad()
	}
	r := &Router{
		sessions:   sessions,
		records:    records,
		gen:        cfg.Generator,
		kb:         cfg.Knowledge,
		classifier: NewClassifier(cfg.Generator),
		machines:   make(map[models.FlowType]*machine),
	}
	for _, m := range []*machine{
		r.mainMenuMachine(),
		r.intakeMachine(),
		r.appointmentMachine(),
		r.documentMachine(),
		r.caseStatusMachine(),
		r.legalInfoMachine(),
		r.servicesMachine(),
		r.lawyerMachine(),
	} {
		r.register(m)
	}
	slog.Debug("Router.NewRouter: flows registered", "count", len(r.machines), "generator", r.gen.Enabled())
	return r
}

func (r *Router) register(m *machine) {
	r.machines[m.flow] = m
}

// transition moves the session and merges patch into its flow data.
func (r *Router) transition(ctx context.Context, in *Input, flow models.FlowType, step models.StepType, patch models.FlowData) error {
	return r.sessions.Transition(ctx, in.Session, flow, step, patch)
}

// toMenu resets the session to main_menu:show with empty data.
func (r *Router) toMenu(ctx context.Context, in *Input) error {
	return r.sessions.Reset(ctx, in.Session, models.FlowMainMenu, models.StepShow, models.FlowData{})
}
