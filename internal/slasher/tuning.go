package slasher

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// ErrInvalidTuning is returned when a tuning value is out of range.
var ErrInvalidTuning = errors.New("invalid slasher tuning")

// Tuning holds every balance constant of the weapon.
// All durations are in ticks at 20 TPS.
type Tuning struct {
	QuickAttack   QuickAttackTuning   `yaml:"quick_attack" json:"quickAttack"`
	Charging      ChargingTuning      `yaml:"charging" json:"charging"`
	ChargedAttack ChargedAttackTuning `yaml:"charged_attack" json:"chargedAttack"`
	Lockon        LockonTuning        `yaml:"lockon" json:"lockon"`
	Plunge        PlungeTuning        `yaml:"plunge" json:"plunge"`
	Storm         StormTuning         `yaml:"storm" json:"storm"`
	FastBeam      BeamProfile         `yaml:"fast_beam" json:"fastBeam"`
	ChargedBeam   BeamProfile         `yaml:"charged_beam" json:"chargedBeam"`
}

// QuickAttackTuning is the fast slash chain.
type QuickAttackTuning struct {
	Lifespan      int     `yaml:"lifespan" json:"lifespan"`
	PreventCharge int     `yaml:"prevent_charge" json:"preventCharge"` // lifespan below this lets a held use recharge
	SwingCooldown int     `yaml:"swing_cooldown" json:"swingCooldown"`
	SwingDamage   float64 `yaml:"swing_damage" json:"swingDamage"`
	SweepRadius   float64 `yaml:"sweep_radius" json:"sweepRadius"`
	SweepClosest  int     `yaml:"sweep_closest" json:"sweepClosest"`
}

// ChargingTuning controls the hold-to-charge window.
type ChargingTuning struct {
	Threshold      int     `yaml:"threshold" json:"threshold"`
	StormThreshold int     `yaml:"storm_threshold" json:"stormThreshold"`
	HoldAnimEvery  int     `yaml:"hold_anim_every" json:"holdAnimEvery"`
	LoopSoundEvery int     `yaml:"loop_sound_every" json:"loopSoundEvery"`
	PlungeMinPitch float64 `yaml:"plunge_min_pitch" json:"plungeMinPitch"`
}

// ChargedAttackTuning is the dash slash released at full charge.
type ChargedAttackTuning struct {
	GroundDashStart int     `yaml:"ground_dash_start" json:"groundDashStart"`
	AirDashStart    int     `yaml:"air_dash_start" json:"airDashStart"`
	Damaging        int     `yaml:"damaging" json:"damaging"`
	Damage          float64 `yaml:"damage" json:"damage"`
	Total           int     `yaml:"total" json:"total"`

	DashInput       float64 `yaml:"dash_input" json:"dashInput"`
	GroundDashForce float64 `yaml:"ground_dash_force" json:"groundDashForce"`
	AirDashForce    float64 `yaml:"air_dash_force" json:"airDashForce"`

	Probes       []targeting.Probe `yaml:"probes" json:"probes"`
	AttackFilter targeting.Filter  `yaml:"attack_filter" json:"attackFilter"`
	LockonFilter targeting.Filter  `yaml:"lockon_filter" json:"lockonFilter"`
	CritFeedback int               `yaml:"crit_feedback" json:"critFeedback"` // targets that get sparks and sound
}

// LockonTuning is the chainsaw hold.
type LockonTuning struct {
	Damage         float64 `yaml:"damage" json:"damage"`
	Slowness       int     `yaml:"slowness" json:"slowness"`
	EndUnlock      int     `yaml:"end_unlock" json:"endUnlock"`
	EndDuration    int     `yaml:"end_duration" json:"endDuration"`
	FirstCritMin   int     `yaml:"first_crit_min" json:"firstCritMin"`
	FirstCritMax   int     `yaml:"first_crit_max" json:"firstCritMax"`
	CritIntervalLo int     `yaml:"crit_interval_min" json:"critIntervalMin"`
	CritIntervalHi int     `yaml:"crit_interval_max" json:"critIntervalMax"`
	LowHealth      float64 `yaml:"low_health" json:"lowHealth"` // flashes the health readout at or below
}

// PlungeTuning is the downward smash.
type PlungeTuning struct {
	RiseForce      vec.Vec3 `yaml:"rise_force" json:"riseForce"`
	WindupDuration int      `yaml:"windup_duration" json:"windupDuration"`
	FallForce      vec.Vec3 `yaml:"fall_force" json:"fallForce"`
	HighFall       float64  `yaml:"high_fall" json:"highFall"`
	Unlock         int      `yaml:"unlock" json:"unlock"`
	End            int      `yaml:"end" json:"end"`
	MinDepth       float64  `yaml:"min_depth" json:"minDepth"`

	RadiusBase    float64 `yaml:"radius_base" json:"radiusBase"`
	RadiusDivisor float64 `yaml:"radius_divisor" json:"radiusDivisor"`
	RadiusMin     float64 `yaml:"radius_min" json:"radiusMin"`
	RadiusMax     float64 `yaml:"radius_max" json:"radiusMax"`
	Closest       int     `yaml:"closest" json:"closest"`

	DamagePerDepth float64 `yaml:"damage_per_depth" json:"damagePerDepth"` // damage = round(depth * this)
	Slowness       int     `yaml:"slowness" json:"slowness"`
	SlownessLevel  int     `yaml:"slowness_level" json:"slownessLevel"`
	ShakeRadius    float64 `yaml:"shake_radius" json:"shakeRadius"`
	ImpactRay      float64 `yaml:"impact_ray" json:"impactRay"`

	Filter targeting.Filter `yaml:"filter" json:"filter"`
}

// StormTuning is the gliding charge variant.
type StormTuning struct {
	Windup       int     `yaml:"windup" json:"windup"`
	StrikeForce  float64 `yaml:"strike_force" json:"strikeForce"`
	StrikeTicks  int     `yaml:"strike_ticks" json:"strikeTicks"`
	MinForce     float64 `yaml:"min_force" json:"minForce"`
	AngleDivisor float64 `yaml:"angle_divisor" json:"angleDivisor"`
	ImpactDamage float64 `yaml:"impact_damage" json:"impactDamage"`
	ImpactRadius float64 `yaml:"impact_radius" json:"impactRadius"`
	ImpactTicks  int     `yaml:"impact_ticks" json:"impactTicks"`
}

// BeamProfile describes one kind of slash projectile.
type BeamProfile struct {
	TypeID          string     `yaml:"type_id" json:"typeId"`
	Offsets         []vec.Vec3 `yaml:"offsets" json:"offsets"` // one beam per offset, view space
	Force           float64    `yaml:"force" json:"force"`
	Damage          float64    `yaml:"damage" json:"damage"`
	UseDamageModel  bool       `yaml:"use_damage_model" json:"useDamageModel"`
	ClearVelocity   bool       `yaml:"clear_velocity" json:"clearVelocity"`
	Slowness        int        `yaml:"slowness" json:"slowness"`
	HitmarkerVolume float64    `yaml:"hitmarker_volume" json:"hitmarkerVolume"`
	KeepOnMiss      bool       `yaml:"keep_on_miss" json:"keepOnMiss"` // keep flying when the damage did not land
	RotationZ       float64    `yaml:"rotation_z" json:"rotationZ"`
	HitParticle     string     `yaml:"hit_particle" json:"hitParticle"`
	Lifetime        int        `yaml:"lifetime" json:"lifetime"`
}

// DefaultTuning returns the stock balance values.
func DefaultTuning() *Tuning {
	return &Tuning{
		QuickAttack: QuickAttackTuning{
			Lifespan:      15,
			PreventCharge: 9,
			SwingCooldown: 2,
			SwingDamage:   2,
			SweepRadius:   2.2,
			SweepClosest:  10,
		},
		Charging: ChargingTuning{
			Threshold:      5,
			StormThreshold: 30,
			HoldAnimEvery:  6,
			LoopSoundEvery: 8,
			PlungeMinPitch: 65,
		},
		ChargedAttack: ChargedAttackTuning{
			GroundDashStart: 2,
			AirDashStart:    4,
			Damaging:        5,
			Damage:          14,
			Total:           30,
			DashInput:       0.6,
			GroundDashForce: 3.9,
			AirDashForce:    2.2,
			Probes: []targeting.Probe{
				{Offset: vec.New(0, 0, 1.3), Radius: 1.8, Closest: 5},
				{Offset: vec.New(0, 0, 2.7), Radius: 1.8, Closest: 5},
				{Offset: vec.New(0, -1.4, 2.2), Radius: 1.9, Closest: 5},
			},
			AttackFilter: targeting.Filter{
				ExcludeTypes:    targeting.NonCombatTypes,
				ExcludeFamilies: []string{"ignore_slasher_charged_atk", "scpdy_ignore_slasher_slash"},
			},
			LockonFilter: targeting.Filter{
				ExcludeTypes: []string{
					"minecraft:arrow",
					"minecraft:snowball",
					"minecraft:fireball",
					"minecraft:wither",
					"minecraft:ender_dragon",
				},
				ExcludeFamilies: []string{
					"inanimate",
					"projectile",
					"scp096",
					"scp682",
					"ignore_slasher_lockon",
					"scpdy_ignore_slasher_capture",
				},
				ExcludeTags: []string{"scpdy_ignore_slasher_capture"},
			},
			CritFeedback: 3,
		},
		Lockon: LockonTuning{
			Damage:         1,
			Slowness:       40,
			EndUnlock:      4,
			EndDuration:    16,
			FirstCritMin:   1,
			FirstCritMax:   2,
			CritIntervalLo: 2,
			CritIntervalHi: 4,
			LowHealth:      30,
		},
		Plunge: PlungeTuning{
			RiseForce:      vec.New(0, 1.2, 0),
			WindupDuration: 7,
			FallForce:      vec.New(0, -4.4, 0),
			HighFall:       10,
			Unlock:         4,
			End:            12,
			MinDepth:       1.2,
			RadiusBase:     2,
			RadiusDivisor:  3.2,
			RadiusMin:      4,
			RadiusMax:      11,
			Closest:        20,
			DamagePerDepth: 5 / 4.4,
			Slowness:       70,
			SlownessLevel:  1,
			ShakeRadius:    10,
			ImpactRay:      15,
			Filter: targeting.Filter{
				ExcludeTypes:    targeting.NonCombatTypes,
				ExcludeFamilies: []string{"ignore_slasher_plunge"},
			},
		},
		Storm: StormTuning{
			Windup:       16,
			StrikeForce:  3,
			StrikeTicks:  20,
			MinForce:     0.1,
			AngleDivisor: 1.3,
			ImpactDamage: 10,
			ImpactRadius: 4,
			ImpactTicks:  20,
		},
		FastBeam: BeamProfile{
			TypeID: "lc:slasher_beam_fast_atk",
			Offsets: []vec.Vec3{
				vec.New(-1/1.6, -0.3, 0.9),
				vec.New(0, -0.3, 0.9),
				vec.New(1/1.6, -0.3, 0.9),
			},
			Force:           4.62,
			Damage:          1,
			ClearVelocity:   true,
			HitmarkerVolume: 0.4,
			KeepOnMiss:      true,
			HitParticle:     "lc:slasher_beam_hit_weak_emitter",
			Lifetime:        12,
		},
		ChargedBeam: BeamProfile{
			TypeID:         "lc:slasher_beam_charged_atk",
			Offsets:        []vec.Vec3{vec.New(-0.11, 0.03, 0.9)},
			Force:          2.23,
			Damage:         8,
			UseDamageModel: true,
			Slowness:       50,
			RotationZ:      -85,
			HitParticle:    "lc:slasher_beam_hit_strong_emitter",
			Lifetime:       20,
		},
	}
}

// LoadTuning reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func LoadTuning(path string) (*Tuning, error) {
	t := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate rejects values the state graph cannot run with.
func (t *Tuning) Validate() error {
	checks := []struct {
		ok   bool
		name string
	}{
		{t.QuickAttack.Lifespan > 0, "quick_attack.lifespan"},
		{t.QuickAttack.PreventCharge >= 0 && t.QuickAttack.PreventCharge <= t.QuickAttack.Lifespan, "quick_attack.prevent_charge"},
		{t.QuickAttack.SwingCooldown >= 0, "quick_attack.swing_cooldown"},
		{t.QuickAttack.SweepRadius > 0, "quick_attack.sweep_radius"},
		{t.Charging.Threshold > 0, "charging.threshold"},
		{t.Charging.StormThreshold >= t.Charging.Threshold, "charging.storm_threshold"},
		{t.Charging.HoldAnimEvery > 0, "charging.hold_anim_every"},
		{t.Charging.LoopSoundEvery > 0, "charging.loop_sound_every"},
		{t.ChargedAttack.Damaging > 0, "charged_attack.damaging"},
		{t.ChargedAttack.Total >= t.ChargedAttack.Damaging, "charged_attack.total"},
		{len(t.ChargedAttack.Probes) > 0, "charged_attack.probes"},
		{t.Lockon.EndDuration >= t.Lockon.EndUnlock, "lockon.end_duration"},
		{t.Lockon.FirstCritMin > 0 && t.Lockon.FirstCritMax >= t.Lockon.FirstCritMin, "lockon.first_crit"},
		{t.Lockon.CritIntervalLo > 0 && t.Lockon.CritIntervalHi >= t.Lockon.CritIntervalLo, "lockon.crit_interval"},
		{t.Plunge.WindupDuration > 0, "plunge.windup_duration"},
		{t.Plunge.End >= t.Plunge.Unlock, "plunge.end"},
		{t.Plunge.RadiusDivisor > 0, "plunge.radius_divisor"},
		{t.Plunge.RadiusMax >= t.Plunge.RadiusMin, "plunge.radius_max"},
		{t.Storm.Windup >= 0 && t.Storm.StrikeTicks > 0, "storm.strike_ticks"},
		{t.Storm.AngleDivisor > 0, "storm.angle_divisor"},
		{t.FastBeam.TypeID != "" && len(t.FastBeam.Offsets) > 0, "fast_beam"},
		{t.ChargedBeam.TypeID != "" && len(t.ChargedBeam.Offsets) > 0, "charged_beam"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidTuning, c.name)
		}
	}
	return nil
}

// PlungeRadius is the hurt radius for a fall of depth blocks.
func (p PlungeTuning) PlungeRadius(depth float64) float64 {
	return vec.Clamp(p.RadiusBase+depth/p.RadiusDivisor, p.RadiusMin, p.RadiusMax)
}
