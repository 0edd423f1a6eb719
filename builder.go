package dronestorage

import (
	"errors"
	"log/slog"

	"github.com/df-mc/dragonfly/server/cmd"
)

// Builder configures a Manager before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	cfg      *Config
	engine   Engine
	perms    Permissions
	ui       UI
	lang     *Lang
	handlers []Handler
	log      *slog.Logger
	commands bool
}

// NewBuilder creates a new builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Config sets the configuration. Default: Defaults().
func (b *Builder) Config(cfg Config) *Builder {
	b.cfg = &cfg
	return b
}

// Engine sets the host engine. Required.
func (b *Builder) Engine(e Engine) *Builder {
	b.engine = e
	return b
}

// Permissions sets the permission system. Default: an empty PermissionStore.
func (b *Builder) Permissions(p Permissions) *Builder {
	b.perms = p
	return b
}

// UI sets the overlay renderer. Default: NopUI.
func (b *Builder) UI(ui UI) *Builder {
	b.ui = ui
	return b
}

// Lang sets the message tables. Default: NewLang().
func (b *Builder) Lang(l *Lang) *Builder {
	b.lang = l
	return b
}

// Handler adds a hook handler. Handlers run in the order they were added.
func (b *Builder) Handler(h Handler) *Builder {
	b.handlers = append(b.handlers, h)
	return b
}

// Logger sets the logger. Default: slog.Default().
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// Commands registers the chat commands with Dragonfly on Init.
func (b *Builder) Commands() *Builder {
	b.commands = true
	return b
}

// Build creates the Manager without starting it.
func (b *Builder) Build() (*Manager, error) {
	if b.engine == nil {
		return nil, errors.New("dronestorage: engine is required")
	}

	cfg := Defaults()
	if b.cfg != nil {
		cfg = *b.cfg
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	perms := b.perms
	if perms == nil {
		store, err := NewPermissionStore()
		if err != nil {
			return nil, err
		}
		perms = store
	}
	ui := b.ui
	if ui == nil {
		ui = NopUI{}
	}
	lang := b.lang
	if lang == nil {
		lang = NewLang()
	}
	log := b.log
	if log == nil {
		log = slog.Default()
	}

	m := newManager(cfg, b.engine, perms, ui, lang, b.handlers, log)
	if err := m.registerPermissions(); err != nil {
		return nil, err
	}
	if f, ok := ui.(*FormUI); ok {
		f.bind(m)
	}
	return m, nil
}

// Init builds the Manager, starts its scheduler and registers the chat
// commands if requested. It panics on misconfiguration.
func (b *Builder) Init() *Manager {
	m, err := b.Build()
	if err != nil {
		panic("dronestorage: failed to build manager: " + err.Error())
	}
	m.Start()

	if b.commands {
		for _, c := range m.Commands() {
			cmd.Register(c)
		}
	}
	return m
}
