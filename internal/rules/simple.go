package rules

import (
	"github.com/pedohorse/tankgrid-battle-sim/internal/engine"
	"github.com/pedohorse/tankgrid-battle-sim/internal/soundlog"
	"github.com/pedohorse/tankgrid-battle-sim/internal/world"
)

// Duration constants for the bundled rules module's primitives. A cast at
// 3x Wait reproduces the "after-shoot-cooldown=15" scenario.
const (
	durationTurn  engine.GameTime = 10
	durationMove  engine.GameTime = 20
	durationShoot engine.GameTime = 5
	durationWait  engine.GameTime = 5
)

// Config tunes the bundled rules module's starting resources and timings.
type Config struct {
	InitialHealth int
	InitialAmmo   int
	ShotDamage    int
	GraceTicks    engine.GameTime // 0 = death is confirmed the instant health reaches 0
	HearingExpiry uint64

	// Labels assigns a display label to each player index, in order,
	// overriding the default tank[A]/tank[B]/... scheme. A short or absent
	// entry falls back to labelFor for that player.
	Labels []string
}

// DefaultConfig mirrors the single-shot, single-life tanks used throughout
// the bundled rules module's own test scenarios.
func DefaultConfig() Config {
	return Config{
		InitialHealth: 1,
		InitialAmmo:   1,
		ShotDamage:    1,
		GraceTicks:    0,
		HearingExpiry: 50,
	}
}

type tankState struct {
	pos            world.Position
	orientation    world.Orientation
	health         int
	ammo           int
	hitSinceCheck  bool
	deathPending   bool // fatal damage applied, awaiting the grace-period event
	deathConfirmed bool
}

// deathEvent is the rules module's only Event variant: it confirms a tank's
// death once its grace period elapses.
type deathEvent struct {
	Player engine.PlayerIndex
}

// SimpleRules is the bundled grid tank-combat rules module, component C2's
// reference implementation.
type SimpleRules struct {
	grid   *world.Grid
	prober *world.Prober
	sounds *soundlog.Log
	cfg    Config
	tanks  []*tankState
	labels []string
}

var _ engine.Rules = (*SimpleRules)(nil)

// New constructs a SimpleRules instance. spawns must have exactly one entry
// per player, in player-index order.
func New(grid *world.Grid, spawns []world.SpawnPoint, cfg Config) *SimpleRules {
	tanks := make([]*tankState, len(spawns))
	labels := make([]string, len(spawns))
	for i, sp := range spawns {
		tanks[i] = &tankState{
			pos:         world.Position{Col: sp.Col, Row: sp.Row},
			orientation: sp.Orientation,
			health:      cfg.InitialHealth,
			ammo:        cfg.InitialAmmo,
		}
		if i < len(cfg.Labels) && cfg.Labels[i] != "" {
			labels[i] = cfg.Labels[i]
		} else {
			labels[i] = labelFor(i)
		}
	}
	return &SimpleRules{
		grid:   grid,
		prober: world.NewProber(grid),
		sounds: soundlog.New(cfg.HearingExpiry),
		cfg:    cfg,
		tanks:  tanks,
		labels: labels,
	}
}

func labelFor(i int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if i < len(letters) {
		return "tank[" + string(letters[i]) + "]"
	}
	return "tank[?]"
}

func (r *SimpleRules) occupantAt(pos world.Position) (engine.PlayerIndex, bool) {
	for i, tk := range r.tanks {
		if !tk.deathConfirmed && tk.pos == pos {
			return engine.PlayerIndex(i), true
		}
	}
	return 0, false
}

func (r *SimpleRules) IsDead(p engine.PlayerIndex) bool {
	return r.tanks[p].deathConfirmed
}

func (r *SimpleRules) GameFinished(engine.GameTime) ([]engine.PlayerIndex, bool) {
	if len(r.tanks) < 2 {
		return nil, false
	}
	var alive []engine.PlayerIndex
	for i, tk := range r.tanks {
		if !tk.deathConfirmed {
			alive = append(alive, engine.PlayerIndex(i))
		}
	}
	if len(alive) <= 1 {
		return alive, true
	}
	return nil, false
}

func (r *SimpleRules) InitialSetup(engine.LogSink) {}

func (r *SimpleRules) CommandReceived(engine.PlayerIndex, engine.Command, engine.CommandID, engine.GameTime, engine.LogSink) {
}

func (r *SimpleRules) CommandReplyDelivered(engine.PlayerIndex, engine.Command, engine.CommandID, engine.GameTime, engine.LogSink) {
}

func (r *SimpleRules) CommandDuration(p engine.PlayerIndex, cmd engine.Command) (engine.GameTime, bool) {
	c := cmd.(Command)
	switch c.Kind {
	case TurnCW, TurnCCW:
		return durationTurn, true
	case MoveForward:
		pct := int64(r.moveSpeedPercent(p))
		return engine.GameTime(int64(durationMove) * 100 / pct), true
	case Shoot:
		return durationShoot, true
	case Wait:
		return durationWait, true
	default:
		return 0, true
	}
}

// moveSpeedPercent reports the destination tile's pass-speed percentage for
// player p's next move_forward, silently substituting the safe default of
// 100 for a blocked step (a blocked move is a no-op, priced at full speed)
// or a misconfigured non-wall tile declaring 0% speed. ProcessCommand logs
// the misconfiguration case; this helper has no log sink to report through.
func (r *SimpleRules) moveSpeedPercent(p engine.PlayerIndex) int {
	tk := r.tanks[p]
	next, passable := r.prober.Step(tk.pos, tk.orientation)
	if !passable {
		return 100
	}
	if pct := r.grid.At(next).PassSpeedPercentage(); pct > 0 {
		return pct
	}
	return 100
}

func (r *SimpleRules) CommandReplyDelay(engine.PlayerIndex, engine.Command) engine.GameTime {
	return 0
}

func (r *SimpleRules) ObjectLabel(p engine.PlayerIndex) string {
	return r.labels[p]
}

func (r *SimpleRules) ProcessEvent(ev engine.Event, t engine.GameTime, log engine.LogSink) []engine.TimedEvent {
	if de, ok := ev.(deathEvent); ok {
		r.tanks[de.Player].deathConfirmed = true
	}
	return nil
}

func (r *SimpleRules) ProcessCommand(p engine.PlayerIndex, cmd engine.Command, id engine.CommandID, t engine.GameTime, log engine.LogSink) (engine.Reply, []engine.Command, []engine.TimedEvent) {
	c := cmd.(Command)
	tk := r.tanks[p]

	switch c.Kind {
	case TurnCW:
		tk.orientation = tk.orientation.CW()
		return Reply{OK: true}, nil, nil

	case TurnCCW:
		tk.orientation = tk.orientation.CCW()
		return Reply{OK: true}, nil, nil

	case MoveForward:
		next, passable := r.prober.Step(tk.pos, tk.orientation)
		if _, occupied := r.occupantAt(next); !passable || occupied {
			return Reply{OK: false}, nil, nil
		}
		if r.grid.At(next).PassSpeedPercentage() <= 0 {
			log.Write(r.labels[p], "warn_zero_speed_tile", t, 0)
		}
		tk.pos = next
		r.sounds.Push(tk.pos, uint64(t), "footstep")
		return Reply{OK: true}, nil, nil

	case Shoot:
		if tk.ammo <= 0 {
			return Reply{OK: false}, nil, nil
		}
		tk.ammo--
		r.sounds.Push(tk.pos, uint64(t), "gunshot")

		var hitTarget engine.PlayerIndex
		hit := false
		// Cast already stops at the first wall or occupant, so only the
		// last visited tile can possibly hold a target.
		if path := r.prober.Cast(tk.pos, tk.orientation, func(pos world.Position) bool {
			_, occ := r.occupantAt(pos)
			return occ
		}); len(path) > 0 {
			hitTarget, hit = r.occupantAt(path[len(path)-1])
		}

		var extraEvents []engine.TimedEvent
		if hit {
			victim := r.tanks[hitTarget]
			victim.hitSinceCheck = true
			victim.health -= r.cfg.ShotDamage
			if victim.health <= 0 && !victim.deathPending && !victim.deathConfirmed {
				victim.deathPending = true
				if r.cfg.GraceTicks == 0 {
					victim.deathConfirmed = true
				} else {
					extraEvents = append(extraEvents, engine.TimedEvent{Delta: r.cfg.GraceTicks, Event: deathEvent{Player: hitTarget}})
				}
			}
		}

		cooldown := []engine.Command{
			Command{Kind: Wait}, Command{Kind: Wait}, Command{Kind: Wait},
		}
		reply := Reply{OK: hit, HasValue: true}
		if hit {
			reply.IntValue = int64(hitTarget)
		} else {
			reply.IntValue = -1
		}
		return reply, cooldown, extraEvents

	case Wait:
		return Reply{OK: true}, nil, nil

	case CheckAmmo:
		return Reply{OK: true, IntValue: int64(tk.ammo), HasValue: true}, nil, nil

	case CheckHealth:
		return Reply{OK: true, IntValue: int64(tk.health), HasValue: true}, nil, nil

	case CheckHit:
		wasHit := tk.hitSinceCheck
		tk.hitSinceCheck = false
		return Reply{OK: wasHit}, nil, nil

	case Look:
		dir := tk.orientation
		if c.hasDirection {
			dir = c.Direction
		}
		var tiles []TileView
		for _, pos := range r.prober.Cast(tk.pos, dir, nil) {
			view := TileView{Tile: r.grid.At(pos).ScriptRepr()}
			if occ, ok := r.occupantAt(pos); ok {
				view.Occupant = r.labels[occ]
			}
			tiles = append(tiles, view)
		}
		return Reply{OK: true, Tiles: tiles}, nil, nil

	case Listen:
		var sounds []SoundView
		for _, e := range r.sounds.Hearable(uint64(t)) {
			sounds = append(sounds, SoundView{Label: e.Label, AgeTicks: uint64(t) - e.EmittedAt})
		}
		return Reply{OK: true, Sounds: sounds}, nil, nil

	default:
		return Reply{OK: false}, nil, nil
	}
}

func (r *SimpleRules) InstallBindings(p engine.PlayerIndex, host engine.ScriptRuntime, send func(engine.Command) (engine.Reply, error)) error {
	bind := func(name string, kind Kind) error {
		return host.Bind(name, func([]any) (any, error) {
			reply, err := send(Command{Kind: kind})
			if err != nil {
				return nil, err
			}
			return replyToJS(reply), nil
		})
	}

	for name, kind := range map[string]Kind{
		"turn_cw":      TurnCW,
		"turn_ccw":     TurnCCW,
		"move_forward": MoveForward,
		"shoot":        Shoot,
		"wait":         Wait,
		"check_ammo":   CheckAmmo,
		"check_health": CheckHealth,
		"check_hit":    CheckHit,
		"listen":       Listen,
	} {
		if err := bind(name, kind); err != nil {
			return err
		}
	}

	return host.Bind("look", func(args []any) (any, error) {
		tk := r.tanks[p]
		dir := parseDirectionArg(args, tk.orientation)
		cmd := Command{Kind: Look, Direction: dir, hasDirection: true}
		reply, err := send(cmd)
		if err != nil {
			return nil, err
		}
		return replyToJS(reply), nil
	})
}

// replyToJS flattens a Reply into a plain Go value a goja runtime can export
// back to JavaScript without needing to know this package's types.
func replyToJS(reply engine.Reply) any {
	r := reply.(Reply)
	out := map[string]any{"ok": r.OK}
	if r.HasValue {
		out["value"] = r.IntValue
	}
	if r.StrValue != "" {
		out["text"] = r.StrValue
	}
	if len(r.Tiles) > 0 {
		tiles := make([]any, len(r.Tiles))
		for i, tv := range r.Tiles {
			tiles[i] = map[string]any{"tile": tv.Tile, "occupant": tv.Occupant}
		}
		out["tiles"] = tiles
	}
	if len(r.Sounds) > 0 {
		sounds := make([]any, len(r.Sounds))
		for i, sv := range r.Sounds {
			sounds[i] = map[string]any{"label": sv.Label, "age": sv.AgeTicks}
		}
		out["sounds"] = sounds
	}
	return out
}
