package dronestorage

import (
	"golang.org/x/text/language"
)

// UI renders the control overlay for a piloting player.
type UI interface {
	// Render shows o to a, replacing any overlay already shown.
	Render(a Actor, o Overlay)

	// Destroy removes the overlay shown to a. Destroying a missing overlay is
	// a no-op.
	Destroy(a Actor)
}

// Overlay is a panel of buttons anchored to the screen.
type Overlay struct {
	Title string

	// Panel anchor and offsets, relative to the screen.
	AnchorMin string
	AnchorMax string
	OffsetMin [2]int
	OffsetMax [2]int

	Buttons []Button
}

// Button is one overlay button bound to a remote command.
type Button struct {
	Command   string
	Text      string
	TextSize  int
	TextColor string
	Color     string

	// Offsets relative to the panel's bottom-left corner.
	OffsetMin [2]int
	OffsetMax [2]int
}

// ButtonSet selects which buttons an overlay shows.
type ButtonSet struct {
	View bool
	Drop bool
	Lock bool

	// Locked picks the lock button's text.
	Locked bool
}

// Len returns the number of visible buttons.
func (s ButtonSet) Len() int {
	n := 0
	for _, b := range [...]bool{s.View, s.Drop, s.Lock} {
		if b {
			n++
		}
	}
	return n
}

// BuildOverlay lays out the visible buttons centred in a row.
func BuildOverlay(cfg UIConfig, lang *Lang, tag language.Tag, set ButtonSet) Overlay {
	o := Overlay{
		Title:     lang.Get(tag, "UI.Title"),
		AnchorMin: cfg.AnchorMin,
		AnchorMax: cfg.AnchorMax,
		OffsetMin: [2]int{0, -cfg.OffsetTop - cfg.ButtonHeight},
		OffsetMax: [2]int{0, -cfg.OffsetTop - cfg.ButtonHeight},
	}

	total := set.Len()
	add := func(command, key, color string) {
		x := buttonOffsetX(cfg, len(o.Buttons), total)
		o.Buttons = append(o.Buttons, Button{
			Command:   command,
			Text:      lang.Get(tag, key),
			TextSize:  cfg.TextSize,
			TextColor: cfg.TextColor,
			Color:     color,
			OffsetMin: [2]int{x, 0},
			OffsetMax: [2]int{x + cfg.ButtonWidth, cfg.ButtonHeight},
		})
	}

	if set.View {
		add(CommandViewItems, "UI.Button.ViewItems", cfg.ViewColor)
	}
	if set.Drop {
		add(CommandDropItems, "UI.Button.DropItems", cfg.DropColor)
	}
	if set.Lock {
		key := "UI.Button.Lock"
		if set.Locked {
			key = "UI.Button.Unlock"
		}
		add(CommandToggleLock, key, cfg.LockColor)
	}
	return o
}

// buttonOffsetX returns the left edge of button index in a row of total
// buttons centred on the panel origin.
func buttonOffsetX(cfg UIConfig, index, total int) int {
	width := cfg.ButtonWidth*total + cfg.ButtonSpacing*(total-1)
	return -width/2 + (cfg.ButtonWidth+cfg.ButtonSpacing)*index
}

// NopUI renders nothing.
type NopUI struct{}

func (NopUI) Render(Actor, Overlay) {}
func (NopUI) Destroy(Actor)         {}

// Compile-time check that NopUI implements UI.
var _ UI = NopUI{}
