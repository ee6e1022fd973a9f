package rules

import (
	"testing"

	"github.com/pedohorse/tankgrid-battle-sim/internal/engine"
	"github.com/pedohorse/tankgrid-battle-sim/internal/world"
)

func grid3x3() *world.Grid {
	return world.NewGrid(3, 3)
}

// Scenario 1: solo turn_cw mutates South -> West.
func TestSoloTurnClockwise(t *testing.T) {
	spawns := []world.SpawnPoint{{Col: 0, Row: 0, Orientation: world.South}}
	r := New(grid3x3(), spawns, DefaultConfig())

	reply, extra, events := r.ProcessCommand(0, Command{Kind: TurnCW}, 1, 0, nil)
	if !reply.(Reply).OK {
		t.Fatal("turn_cw reply not ok")
	}
	if extra != nil || events != nil {
		t.Fatalf("turn_cw produced extra commands/events: %v %v", extra, events)
	}
	if got := r.tanks[0].orientation; got != world.West {
		t.Fatalf("orientation after turn_cw from South = %v, want West", got)
	}
}

// Scenario 2: two players, no contact; B moves one tile forward.
func TestMoveForwardIntoOpenFloor(t *testing.T) {
	spawns := []world.SpawnPoint{
		{Col: 0, Row: 0, Orientation: world.South},
		{Col: 2, Row: 2, Orientation: world.North},
	}
	r := New(grid3x3(), spawns, DefaultConfig())

	reply, _, _ := r.ProcessCommand(1, Command{Kind: MoveForward}, 1, 0, nil)
	if !reply.(Reply).OK {
		t.Fatal("move_forward reply not ok")
	}
	want := world.Position{Col: 2, Row: 1}
	if got := r.tanks[1].pos; got != want {
		t.Fatalf("B's position = %+v, want %+v", got, want)
	}
	if r.IsDead(0) || r.IsDead(1) {
		t.Fatal("neither player should be dead")
	}
}

// Scenario 3: mutual approach, one shoots and kills with default 1hp/1ammo.
func TestShootKillsAndQueuesCooldown(t *testing.T) {
	spawns := []world.SpawnPoint{
		{Col: 0, Row: 1, Orientation: world.East},
		{Col: 2, Row: 1, Orientation: world.West},
	}
	r := New(grid3x3(), spawns, DefaultConfig())

	reply, extra, _ := r.ProcessCommand(1, Command{Kind: Shoot}, 1, 0, nil)
	rep := reply.(Reply)
	if !rep.OK {
		t.Fatal("shoot should have hit player 0")
	}
	if rep.IntValue != 0 {
		t.Fatalf("shoot reply target = %d, want 0", rep.IntValue)
	}
	if !rep.HasValue {
		t.Fatal("shoot reply hitting player 0 must still flag HasValue, or scripts see undefined instead of 0")
	}
	if !r.IsDead(0) {
		t.Fatal("player 0 should be dead with default 1hp config")
	}
	if len(extra) != 3 {
		t.Fatalf("shoot queued %d cooldown commands, want 3", len(extra))
	}
	for _, c := range extra {
		if c.(Command).Kind != Wait {
			t.Errorf("cooldown command %v is not Wait", c)
		}
	}

	winners, finished := r.GameFinished(0)
	if !finished || len(winners) != 1 || winners[0] != 1 {
		t.Fatalf("GameFinished = %v, %v; want [1], true", winners, finished)
	}
}

// Scenario 6: a delayed death window lets the victim act once more before
// its death is confirmed.
func TestDelayedDeathWindow(t *testing.T) {
	spawns := []world.SpawnPoint{
		{Col: 0, Row: 1, Orientation: world.East},
		{Col: 2, Row: 1, Orientation: world.West},
	}
	cfg := DefaultConfig()
	cfg.GraceTicks = 27
	r := New(grid3x3(), spawns, cfg)

	reply, _, events := r.ProcessCommand(1, Command{Kind: Shoot}, 1, 0, nil)
	if !reply.(Reply).OK {
		t.Fatal("shoot should have hit player 0")
	}
	if r.IsDead(0) {
		t.Fatal("victim should not be dead yet; grace period has not elapsed")
	}
	if len(events) != 1 || events[0].Delta != 27 {
		t.Fatalf("expected one TimedEvent with delta 27, got %v", events)
	}

	// The victim still gets to act during the grace window.
	moveReply, _, _ := r.ProcessCommand(0, Command{Kind: MoveForward}, 2, 10, nil)
	if !moveReply.(Reply).OK {
		t.Fatal("victim's move_forward during the grace window should still succeed")
	}
	want := world.Position{Col: 1, Row: 1}
	if got := r.tanks[0].pos; got != want {
		t.Fatalf("victim position after grace-window move = %+v, want %+v", got, want)
	}

	r.ProcessEvent(events[0].Event, 27, nil)
	if !r.IsDead(0) {
		t.Fatal("victim should be confirmed dead once the death event fires")
	}

	winners, finished := r.GameFinished(27)
	if !finished || len(winners) != 1 || winners[0] != 1 {
		t.Fatalf("GameFinished after death event = %v, %v; want [1], true", winners, finished)
	}
}

func TestShootWithoutAmmoMisses(t *testing.T) {
	spawns := []world.SpawnPoint{
		{Col: 0, Row: 1, Orientation: world.East},
		{Col: 2, Row: 1, Orientation: world.West},
	}
	cfg := DefaultConfig()
	cfg.InitialAmmo = 0
	r := New(grid3x3(), spawns, cfg)

	reply, extra, _ := r.ProcessCommand(1, Command{Kind: Shoot}, 1, 0, nil)
	if reply.(Reply).OK {
		t.Fatal("shoot with no ammo should not succeed")
	}
	if extra != nil {
		t.Fatalf("shoot with no ammo should not queue a cooldown, got %v", extra)
	}
	if r.IsDead(0) {
		t.Fatal("player 0 should not be dead")
	}
}

func TestCheckHitResetsAfterRead(t *testing.T) {
	spawns := []world.SpawnPoint{
		{Col: 0, Row: 1, Orientation: world.East},
		{Col: 2, Row: 1, Orientation: world.West},
	}
	cfg := DefaultConfig()
	cfg.ShotDamage = 0 // wound without killing, so CheckHit is still observable
	r := New(grid3x3(), spawns, cfg)

	r.ProcessCommand(1, Command{Kind: Shoot}, 1, 0, nil)

	first, _, _ := r.ProcessCommand(0, Command{Kind: CheckHit}, 2, 0, nil)
	if !first.(Reply).OK {
		t.Fatal("first check_hit after being shot should report true")
	}
	second, _, _ := r.ProcessCommand(0, Command{Kind: CheckHit}, 3, 0, nil)
	if second.(Reply).OK {
		t.Fatal("second check_hit should report false; the flag should have reset")
	}
}

func TestLookReportsTerrainUpToWall(t *testing.T) {
	grid := grid3x3()
	grid.Set(world.Position{Col: 1, Row: 1}, world.Wall)
	spawns := []world.SpawnPoint{
		{Col: 0, Row: 1, Orientation: world.East},
	}
	r := New(grid, spawns, DefaultConfig())

	reply, _, _ := r.ProcessCommand(0, Command{Kind: Look}, 1, 0, nil)
	tiles := reply.(Reply).Tiles
	if len(tiles) != 1 || tiles[0].Tile != "wall" {
		t.Fatalf("look toward a wall at distance 1 = %v, want one wall tile", tiles)
	}
}

// replyToJS must surface a zero value, not drop it as if the field were
// absent: check_ammo()==0 has to read as 0 in script, not undefined.
func TestReplyToJSKeepsZeroValue(t *testing.T) {
	spawns := []world.SpawnPoint{{Col: 0, Row: 0, Orientation: world.South}}
	cfg := DefaultConfig()
	cfg.InitialAmmo = 0
	r := New(grid3x3(), spawns, cfg)

	reply, _, _ := r.ProcessCommand(0, Command{Kind: CheckAmmo}, 1, 0, nil)
	out := replyToJS(reply).(map[string]any)
	v, ok := out["value"]
	if !ok {
		t.Fatal("check_ammo() at 0 ammo dropped the value field entirely")
	}
	if v.(int64) != 0 {
		t.Fatalf("check_ammo() value = %v, want 0", v)
	}
}

func TestMoveForwardIntoWaterTakesLonger(t *testing.T) {
	grid := grid3x3()
	grid.Set(world.Position{Col: 0, Row: 1}, world.Water)
	spawns := []world.SpawnPoint{{Col: 0, Row: 0, Orientation: world.South}}
	r := New(grid, spawns, DefaultConfig())

	// Water is 50% speed, so the priced duration into it is double the
	// flat base cost, not the same as a move onto open floor.
	wantWater := engine.GameTime(int64(durationMove) * 100 / 50)
	waterDuration, ok := r.CommandDuration(0, Command{Kind: MoveForward})
	if !ok || waterDuration != wantWater {
		t.Fatalf("duration moving into water = %d, %v; want %d, true", waterDuration, ok, wantWater)
	}

	reply, _, _ := r.ProcessCommand(0, Command{Kind: MoveForward}, 1, 0, nil)
	if !reply.(Reply).OK {
		t.Fatal("move into water should succeed, just slower")
	}

	// Standing on the water tile now, the next tile south is open floor
	// again, so pricing returns to the flat base cost.
	floorDuration, ok := r.CommandDuration(0, Command{Kind: MoveForward})
	if !ok || floorDuration != durationMove {
		t.Fatalf("duration moving onto floor = %d, %v; want %d, true", floorDuration, ok, durationMove)
	}
}
