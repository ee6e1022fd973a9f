// Package rules implements the bundled grid tank-combat rules module: the
// core's only game-specific collaborator (component C2). It is grounded on
// the original source's simple_battle_logic.rs, grid_orientation.rs, and
// player_gridmap_control.rs.
package rules

import (
	"strings"

	"github.com/pedohorse/tankgrid-battle-sim/internal/engine"
	"github.com/pedohorse/tankgrid-battle-sim/internal/world"
)

// Kind identifies one of the primitives a player program may invoke.
type Kind int

const (
	TurnCW Kind = iota
	TurnCCW
	MoveForward
	Shoot
	Wait
	CheckAmmo
	CheckHealth
	CheckHit
	Look
	Listen
)

func (k Kind) String() string {
	switch k {
	case TurnCW:
		return "turn_cw"
	case TurnCCW:
		return "turn_ccw"
	case MoveForward:
		return "move_forward"
	case Shoot:
		return "shoot"
	case Wait:
		return "wait"
	case CheckAmmo:
		return "check_ammo"
	case CheckHealth:
		return "check_health"
	case CheckHit:
		return "check_hit"
	case Look:
		return "look"
	case Listen:
		return "listen"
	default:
		return "unknown"
	}
}

// introspective reports whether a command only reads state and carries no
// trace-visible side effect, matching the original's distinction between
// commands that mutate the world and ones that merely query it.
func (k Kind) introspective() bool {
	switch k {
	case CheckAmmo, CheckHealth, CheckHit, Look, Listen:
		return true
	default:
		return false
	}
}

// Command is the tank-combat rules module's Command implementation: a
// single tagged struct covering every primitive, rather than one Go type
// per primitive.
type Command struct {
	Kind         Kind
	Direction    world.Orientation // meaningful only when hasDirection is set
	hasDirection bool
}

var _ engine.Command = Command{}

func (c Command) Equal(other engine.Command) bool {
	o, ok := other.(Command)
	return ok && o.Kind == c.Kind && o.Direction == c.Direction && o.hasDirection == c.hasDirection
}

func (c Command) Clone() engine.Command { return c }

func (c Command) LogRepr() (string, bool) {
	if c.Kind.introspective() {
		return "", false
	}
	return c.Kind.String(), true
}

// TileView is one tile reported by look(), with the script representation
// of its terrain and, if occupied, the occupant's script representation.
type TileView struct {
	Tile     string
	Occupant string // "" if unoccupied
}

// SoundView is one noise event reported by listen().
type SoundView struct {
	Label    string
	AgeTicks uint64
}

// Reply is the tank-combat rules module's Reply implementation.
type Reply struct {
	OK       bool
	IntValue int64
	HasValue bool // IntValue is meaningful even when it is 0 (e.g. check_ammo()==0, shoot() hitting player 0)
	StrValue string
	Tiles    []TileView
	Sounds   []SoundView
}

func (r Reply) Succeeded() bool { return r.OK }

// parseDirectionArg extracts an optional orientation argument (used by
// look()); an absent or unparsable argument falls back to the player's
// current facing.
func parseDirectionArg(args []any, fallback world.Orientation) world.Orientation {
	if len(args) == 0 {
		return fallback
	}
	s, ok := args[0].(string)
	if !ok {
		return fallback
	}
	if o, ok := world.ParseOrientation(strings.TrimSpace(s)); ok {
		return o
	}
	return fallback
}
