// Package handoff decides whether the bot or a human operator answers a
// contact, and persists that decision across restarts.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/models"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
)

// SettingsKey is the settings row holding the serialized flags.
const SettingsKey = "bot_settings"

// Mode selects which contacts the bot answers.
type Mode string

const (
	// ModeAll answers every contact not under manual handling.
	ModeAll Mode = "all"
	// ModeSelected answers only explicitly enabled contacts.
	ModeSelected Mode = "selected"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeAll || m == ModeSelected
}

// Flags is the persisted form of the controller state.
type Flags struct {
	BotActive       bool     `json:"botActive"`
	BotMode         Mode     `json:"botMode"`
	EnabledContacts []string `json:"enabledPhones"`
	ManualContacts  []string `json:"manualPhones"`
}

// DefaultFlags returns the state used when nothing was persisted.
func DefaultFlags() Flags {
	return Flags{
		BotActive:       true,
		BotMode:         ModeAll,
		EnabledContacts: []string{},
		ManualContacts:  []string{},
	}
}

// Gate reasons reported by Reason.
const (
	ReasonPaused   = "paused"
	ReasonManual   = "manual"
	ReasonInactive = "inactive"
)

// Controller holds the bot/human handoff flags.
type Controller struct {
	mu      sync.RWMutex
	repo    store.SettingsRepo
	active  bool
	mode    Mode
	enabled map[string]struct{}
	manual  map[string]struct{}
}

// NewController creates a controller with default flags. Call Load to
// restore persisted state.
func NewController(repo store.SettingsRepo) *Controller {
	c := &Controller{repo: repo}
	c.apply(DefaultFlags())
	return c
}

// apply replaces the in-memory state. Caller holds mu or owns c.
func (c *Controller) apply(f Flags) {
	c.active = f.BotActive
	c.mode = f.BotMode
	if !c.mode.IsValid() {
		c.mode = ModeAll
	}
	c.enabled = toSet(f.EnabledContacts)
	c.manual = toSet(f.ManualContacts)
}

func toSet(list []string) map[string]struct{} {
	out := make(map[string]struct{}, len(list))
	for _, v := range list {
		if p := models.CanonicalAddress(v); p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

func fromSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Load restores the flags from the settings store. A missing row keeps the
// defaults; unreadable data is logged and replaced by the defaults.
func (c *Controller) Load(ctx context.Context) error {
	raw, err := c.repo.GetSetting(ctx, SettingsKey)
	if errors.Is(err, models.ErrSettingNotFound) {
		slog.Debug("Controller.Load: no persisted settings, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load bot settings: %w", err)
	}

	flags := DefaultFlags()
	if err := json.Unmarshal([]byte(raw), &flags); err != nil {
		slog.Warn("Controller.Load: discarding unreadable settings", "error", err)
		flags = DefaultFlags()
	}

	c.mu.Lock()
	c.apply(flags)
	c.mu.Unlock()
	slog.Info("Controller.Load: bot state restored", "active", flags.BotActive, "mode", c.mode, "enabled", len(flags.EnabledContacts), "manual", len(flags.ManualContacts))
	return nil
}

// snapshotLocked copies the state. Caller holds mu.
func (c *Controller) snapshotLocked() Flags {
	return Flags{
		BotActive:       c.active,
		BotMode:         c.mode,
		EnabledContacts: fromSet(c.enabled),
		ManualContacts:  fromSet(c.manual),
	}
}

// Snapshot returns a copy of the current flags.
func (c *Controller) Snapshot() Flags {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// persistLocked writes the flags. Caller holds the write lock so writes
// land in mutation order.
func (c *Controller) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(c.snapshotLocked())
	if err != nil {
		return fmt.Errorf("failed to encode bot settings: %w", err)
	}
	if err := c.repo.PutSetting(ctx, SettingsKey, string(raw)); err != nil {
		slog.Error("Controller.persist: failed to save settings", "error", err)
		return fmt.Errorf("failed to save bot settings: %w", err)
	}
	return nil
}

// ShouldRespond reports whether the bot answers contact.
func (c *Controller) ShouldRespond(contact string) bool {
	return c.Reason(contact) == ""
}

// Reason explains why the bot stays silent for contact, or returns "" when
// it responds.
func (c *Controller) Reason(contact string) string {
	contact = models.CanonicalAddress(contact)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.active {
		return ReasonPaused
	}
	if _, ok := c.manual[contact]; ok {
		return ReasonManual
	}
	if c.mode == ModeSelected {
		if _, ok := c.enabled[contact]; !ok {
			return ReasonInactive
		}
	}
	return ""
}

// SetBotActive pauses or resumes the bot for everyone.
func (c *Controller) SetBotActive(ctx context.Context, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
	slog.Info("Controller.SetBotActive: bot state changed", "active", active)
	return c.persistLocked(ctx)
}

// SetBotMode switches the answering mode and clears the enabled list.
func (c *Controller) SetBotMode(ctx context.Context, mode Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidBotMode, mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	c.enabled = make(map[string]struct{})
	slog.Info("Controller.SetBotMode: mode changed, enabled list cleared", "mode", mode)
	return c.persistLocked(ctx)
}

// EnableContact lets the bot answer contact in selected mode.
func (c *Controller) EnableContact(ctx context.Context, contact string) error {
	return c.setMember(ctx, "enabled", contact, true)
}

// DisableContact removes contact from the enabled list.
func (c *Controller) DisableContact(ctx context.Context, contact string) error {
	return c.setMember(ctx, "enabled", contact, false)
}

// SetManual hands contact to a human operator, or back to the bot.
func (c *Controller) SetManual(ctx context.Context, contact string, manual bool) error {
	return c.setMember(ctx, "manual", contact, manual)
}

func (c *Controller) setMember(ctx context.Context, list, contact string, on bool) error {
	phone := models.CanonicalAddress(contact)
	if phone == "" {
		return models.ErrEmptyRecipient
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.enabled
	if list == "manual" {
		set = c.manual
	}
	if on {
		set[phone] = struct{}{}
	} else {
		delete(set, phone)
	}
	slog.Info("Controller.setMember: contact updated", "list", list, "phone", phone, "on", on)
	return c.persistLocked(ctx)
}
