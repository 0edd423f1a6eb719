package dronestorage

import (
	"sync"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/player/form"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// FormUI renders overlays as Dragonfly menu forms. Pressing a button runs the
// bound remote command on the Manager.
//
// Forms are sent from the player's own world transaction, scheduled through
// the player's entity handle, so Render and Destroy may be called from any
// goroutine. Only the latest Render or Destroy issued for a player takes
// effect; older ones that reach the world late are dropped.
type FormUI struct {
	mu   sync.RWMutex
	mngr *Manager

	order *formOrder
}

// NewFormUI creates a FormUI. It is bound to a Manager by the Builder.
func NewFormUI() *FormUI {
	return &FormUI{order: newFormOrder()}
}

func (u *FormUI) bind(m *Manager) {
	u.mu.Lock()
	u.mngr = m
	u.mu.Unlock()
}

func (u *FormUI) manager() *Manager {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.mngr
}

// handled is implemented by entities reachable through an entity handle.
type handled interface {
	H() *world.EntityHandle
}

// Render implements UI.
func (u *FormUI) Render(a Actor, o Overlay) {
	h, ok := a.(handled)
	if !ok {
		return
	}
	sub := overlayMenu{ui: u, commands: make(map[string]string, len(o.Buttons))}
	buttons := make([]form.Button, 0, len(o.Buttons))
	for _, b := range o.Buttons {
		sub.commands[b.Text] = b.Command
		buttons = append(buttons, form.NewButton(b.Text, ""))
	}
	menu := form.NewMenu(sub, o.Title).WithButtons(buttons...)

	id, seq := a.UUID(), u.order.issue(a.UUID())
	handle := h.H()
	go handle.ExecWorld(func(tx *world.Tx, e world.Entity) {
		if !u.order.latest(id, seq) {
			return
		}
		if p, ok := e.(*player.Player); ok {
			p.SendForm(menu)
		}
	})
}

// Destroy implements UI.
func (u *FormUI) Destroy(a Actor) {
	h, ok := a.(handled)
	if !ok {
		return
	}
	id, seq := a.UUID(), u.order.issue(a.UUID())
	handle := h.H()
	go handle.ExecWorld(func(tx *world.Tx, e world.Entity) {
		if !u.order.finish(id, seq) {
			return
		}
		if c, ok := e.(interface{ CloseForm() }); ok {
			c.CloseForm()
		}
	})
}

// formOrder numbers form updates per player so that updates delivered out
// of order are discarded.
type formOrder struct {
	mu   sync.Mutex
	next uint64
	last map[uuid.UUID]uint64
}

func newFormOrder() *formOrder {
	return &formOrder{last: make(map[uuid.UUID]uint64)}
}

// issue records a new update for id and returns its sequence number.
func (o *formOrder) issue(id uuid.UUID) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.last[id] = o.next
	return o.next
}

// latest reports whether seq is still the newest update for id.
func (o *formOrder) latest(id uuid.UUID, seq uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last[id] == seq
}

// finish is latest for a teardown. A current teardown forgets id.
func (o *formOrder) finish(id uuid.UUID, seq uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last[id] != seq {
		return false
	}
	delete(o.last, id)
	return true
}

// overlayMenu submits overlay button presses.
type overlayMenu struct {
	ui       *FormUI
	commands map[string]string
}

// Submit implements form.MenuSubmittable.
func (s overlayMenu) Submit(sub form.Submitter, pressed form.Button, _ *world.Tx) {
	p := Form(sub)
	m := s.ui.manager()
	if p == nil || m == nil {
		return
	}
	if name, ok := s.commands[pressed.Text]; ok {
		_ = m.RunRemoteCommand(p, name)
	}
}

// Compile-time checks.
var (
	_ UI                   = (*FormUI)(nil)
	_ form.MenuSubmittable = overlayMenu{}
)
