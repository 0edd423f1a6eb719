package dronestorage

import (
	"strconv"
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/player/form"
)

// Command extracts the player from a command source.
// Returns nil if the source is not a player.
//
// Usage:
//
//	func (c MyCommand) Run(src cmd.Source, out *cmd.Output, tx *world.Tx) {
//	    p := dronestorage.Command(src)
//	    if p == nil {
//	        out.Error("Player-only command")
//	        return
//	    }
//	    _ = mngr.Deploy(p)
//	}
func Command(src cmd.Source) *player.Player {
	p, _ := src.(*player.Player)
	return p
}

// Form extracts the player from a form submitter.
// Returns nil if the submitter is not a player.
func Form(sub form.Submitter) *player.Player {
	p, _ := sub.(*player.Player)
	return p
}

// ItemID returns the "name" and "name:meta" identifiers of a stack.
// Both are empty for an empty stack.
func ItemID(s item.Stack) (name, withMeta string) {
	if s.Empty() {
		return "", ""
	}
	name, meta := s.Item().EncodeItem()
	return name, name + ":" + strconv.Itoa(int(meta))
}

// matchesItem reports whether s is identified by id, either by name or by
// name:meta. A bare name without a namespace matches minecraft items.
func matchesItem(s item.Stack, id string) bool {
	name, withMeta := ItemID(s)
	if name == "" {
		return false
	}
	if !strings.Contains(id, ":") {
		id = "minecraft:" + id
	}
	return id == name || id == withMeta
}
