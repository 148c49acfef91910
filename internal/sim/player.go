package sim

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// HotbarSize is the number of selectable slots.
const HotbarSize = 9

// PlayerTypeID is the type id of every sim player.
const PlayerTypeID = "minecraft:player"

// SoundRecord is one played sound.
type SoundRecord struct {
	Tick     uint64   `json:"tick"`
	ID       string   `json:"id"`
	Volume   float64  `json:"volume"`
	Pitch    float64  `json:"pitch"`
	Location vec.Vec3 `json:"location"`
}

// ShakeRecord is one camera shake request.
type ShakeRecord struct {
	Intensity float64 `json:"intensity"`
	Seconds   float64 `json:"seconds"`
	Kind      string  `json:"kind"`
}

// Player is the sim's engine.Actor.
type Player struct {
	*Body

	name      string
	mode      engine.GameMode
	slot      int
	hotbar    [HotbarSize]*engine.Item
	sneaking  bool
	jumping   bool
	gliding   bool
	movement  vec.Vec2
	cooldowns map[string]int

	sounds     []SoundRecord
	animations []string
	shakes     []ShakeRecord
	actionBar  []string
}

func (p *Player) Name() string { return p.name }

func (p *Player) GameMode() engine.GameMode { return p.mode }

// SetGameMode switches game mode.
func (p *Player) SetGameMode(m engine.GameMode) { p.mode = m }

func (p *Player) SelectedSlot() int { return p.slot }

// SelectSlot changes the selected hotbar slot.
func (p *Player) SelectSlot(slot int) {
	if slot >= 0 && slot < HotbarSize {
		p.slot = slot
	}
}

// SetSlot puts a copy of item in a hotbar slot.
func (p *Player) SetSlot(slot int, item *engine.Item) {
	if slot >= 0 && slot < HotbarSize {
		p.hotbar[slot] = item.Clone()
	}
}

// Slot returns a copy of the item in a hotbar slot.
func (p *Player) Slot(slot int) *engine.Item {
	if slot < 0 || slot >= HotbarSize {
		return nil
	}
	return p.hotbar[slot].Clone()
}

func (p *Player) Mainhand() *engine.Item {
	return p.hotbar[p.slot].Clone()
}

func (p *Player) SetMainhand(item *engine.Item) error {
	if !p.valid {
		return engine.InvalidEntity(p.id)
	}
	p.hotbar[p.slot] = item.Clone()
	return nil
}

func (p *Player) IsSneaking() bool { return p.sneaking }
func (p *Player) IsJumping() bool  { return p.jumping }
func (p *Player) IsGliding() bool  { return p.gliding }

func (p *Player) SetSneaking(v bool) { p.sneaking = v }
func (p *Player) SetJumping(v bool)  { p.jumping = v }
func (p *Player) SetGliding(v bool)  { p.gliding = v }

func (p *Player) MovementVector() vec.Vec2 { return p.movement }

// SetMovement sets raw movement input; Y is forward.
func (p *Player) SetMovement(v vec.Vec2) { p.movement = v }

func (p *Player) StartCooldown(category string, ticks int) error {
	if !p.valid {
		return engine.InvalidEntity(p.id)
	}
	if ticks <= 0 {
		delete(p.cooldowns, category)
		return nil
	}
	p.cooldowns[category] = ticks
	return nil
}

func (p *Player) CooldownRemaining(category string) int {
	return p.cooldowns[category]
}

func (p *Player) PlayAnimation(name string) error {
	if !p.valid {
		return engine.InvalidEntity(p.id)
	}
	p.animations = append(p.animations, name)
	return nil
}

func (p *Player) PlaySound(id string, opts engine.SoundOptions) error {
	if !p.valid {
		return engine.InvalidEntity(p.id)
	}
	loc := p.HeadLocation()
	if opts.Location != nil {
		loc = *opts.Location
	}
	p.sounds = append(p.sounds, SoundRecord{Tick: p.w.tick, ID: id, Volume: opts.Volume, Pitch: opts.Pitch, Location: loc})
	return nil
}

func (p *Player) ShakeCamera(intensity, seconds float64, kind string) error {
	if !p.valid {
		return engine.InvalidEntity(p.id)
	}
	p.shakes = append(p.shakes, ShakeRecord{intensity, seconds, kind})
	return nil
}

func (p *Player) ShowActionBar(text string) error {
	if !p.valid {
		return engine.InvalidEntity(p.id)
	}
	p.actionBar = append(p.actionBar, text)
	return nil
}

// Sounds heard privately by this player.
func (p *Player) Sounds() []SoundRecord { return append([]SoundRecord(nil), p.sounds...) }

// Animations played on this player.
func (p *Player) Animations() []string { return append([]string(nil), p.animations...) }

// Shakes requested for this player's camera.
func (p *Player) Shakes() []ShakeRecord { return append([]ShakeRecord(nil), p.shakes...) }

// ActionBar returns the most recent action bar text.
func (p *Player) ActionBar() string {
	if len(p.actionBar) == 0 {
		return ""
	}
	return p.actionBar[len(p.actionBar)-1]
}

// ActionBarHistory returns every action bar text in order.
func (p *Player) ActionBarHistory() []string { return append([]string(nil), p.actionBar...) }

// HeardSound reports whether the player privately heard id.
func (p *Player) HeardSound(id string) bool {
	for _, s := range p.sounds {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Respawn restores health at loc.
func (p *Player) Respawn(loc vec.Vec3) {
	p.health = p.maxHealth
	p.vel = vec.Zero
	p.SetLocation(loc)
}

func (p *Player) tickCooldowns() {
	for k, v := range p.cooldowns {
		if v <= 1 {
			delete(p.cooldowns, k)
			continue
		}
		p.cooldowns[k] = v - 1
	}
}
