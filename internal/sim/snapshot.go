package sim

import (
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// Body kinds in a snapshot
const (
	KindPlayer     = "player"
	KindMob        = "mob"
	KindProjectile = "projectile"
)

// BodySnapshot is an immutable copy of one entity.
// Uses value types so readers never race the tick goroutine.
type BodySnapshot struct {
	ID        string   `json:"id"`
	TypeID    string   `json:"typeId"`
	Kind      string   `json:"kind"`
	Name      string   `json:"name,omitempty"`
	Location  vec.Vec3 `json:"location"`
	Yaw       float64  `json:"yaw"`
	Health    float64  `json:"health,omitempty"`
	MaxHealth float64  `json:"maxHealth,omitempty"`
}

// BlockSnapshot is one placed block.
type BlockSnapshot struct {
	X, Y, Z int
	ID      string
}

// Snapshot is the world as of the end of a tick.
type Snapshot struct {
	Tick   uint64          `json:"tick"`
	Bodies []BodySnapshot  `json:"bodies"`
	Blocks []BlockSnapshot `json:"-"`
}

// Snapshot returns the latest completed tick. Safe from any goroutine.
func (w *World) Snapshot() *Snapshot {
	return w.snapshot.Load()
}

func (w *World) storeSnapshot() {
	snap := &Snapshot{
		Tick:   w.tick,
		Bodies: make([]BodySnapshot, 0, len(w.order)),
		Blocks: make([]BlockSnapshot, 0, len(w.blocks)),
	}
	for _, id := range w.order {
		b := w.bodies[id]
		if b == nil || !b.valid {
			continue
		}
		bs := BodySnapshot{
			ID:        b.id,
			TypeID:    b.typeID,
			Kind:      KindMob,
			Location:  b.pos,
			Yaw:       b.rot.Y,
			Health:    b.health,
			MaxHealth: b.maxHealth,
		}
		if b.proj != nil {
			bs.Kind = KindProjectile
		} else if p, ok := b.self.(*Player); ok {
			bs.Kind = KindPlayer
			bs.Name = p.name
		}
		snap.Bodies = append(snap.Bodies, bs)
	}
	for k, id := range w.blocks {
		snap.Blocks = append(snap.Blocks, BlockSnapshot{X: k.x, Y: k.y, Z: k.z, ID: id})
	}
	w.snapshot.Store(snap)
}

// RenderOptions controls the top-down PNG view.
type RenderOptions struct {
	Width, Height int
	Center        vec.Vec3
	Scale         float64 // pixels per block
}

// RenderPNG draws the snapshot from above, x to the right and z down.
func (s *Snapshot) RenderPNG(out io.Writer, opts RenderOptions) error {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 640
	}
	if opts.Scale <= 0 {
		opts.Scale = 16
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	cx, cy := float64(opts.Width)/2, float64(opts.Height)/2
	toScreen := func(p vec.Vec3) (float64, float64) {
		return cx + (p.X-opts.Center.X)*opts.Scale, cy + (p.Z-opts.Center.Z)*opts.Scale
	}

	// Background
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, float64(opts.Width), float64(opts.Height))
	dc.Fill()

	// Block grid
	dc.SetColor(color.RGBA{30, 30, 45, 255})
	dc.SetLineWidth(1)
	ox := math.Mod(cx-opts.Center.X*opts.Scale, opts.Scale)
	oy := math.Mod(cy-opts.Center.Z*opts.Scale, opts.Scale)
	for x := ox; x < float64(opts.Width); x += opts.Scale {
		dc.DrawLine(x, 0, x, float64(opts.Height))
		dc.Stroke()
	}
	for y := oy; y < float64(opts.Height); y += opts.Scale {
		dc.DrawLine(0, y, float64(opts.Width), y)
		dc.Stroke()
	}

	dc.SetColor(color.RGBA{90, 90, 110, 255})
	for _, b := range s.Blocks {
		x, y := toScreen(vec.New(float64(b.X), 0, float64(b.Z)))
		dc.DrawRectangle(x, y, opts.Scale, opts.Scale)
		dc.Fill()
	}

	for _, b := range s.Bodies {
		x, y := toScreen(b.Location)
		switch b.Kind {
		case KindProjectile:
			dc.SetColor(color.RGBA{120, 220, 255, 255})
			dc.DrawCircle(x, y, opts.Scale*0.2)
			dc.Fill()
		case KindPlayer:
			drawFacing(dc, x, y, b.Yaw, opts.Scale)
			dc.SetColor(color.RGBA{83, 255, 69, 255})
			dc.DrawCircle(x, y, opts.Scale*0.4)
			dc.Fill()
			drawHealth(dc, x, y, b, opts.Scale)
		default:
			dc.SetColor(color.RGBA{255, 62, 62, 255})
			dc.DrawCircle(x, y, opts.Scale*0.35)
			dc.Fill()
			drawHealth(dc, x, y, b, opts.Scale)
		}
	}

	return dc.EncodePNG(out)
}

func drawFacing(dc *gg.Context, x, y, yaw, scale float64) {
	dir := vec.DirectionFromRotation(vec.Vec2{Y: yaw})
	dc.SetColor(color.White)
	dc.SetLineWidth(2)
	dc.DrawLine(x, y, x+dir.X*scale, y+dir.Z*scale)
	dc.Stroke()
}

func drawHealth(dc *gg.Context, x, y float64, b BodySnapshot, scale float64) {
	if b.MaxHealth <= 0 {
		return
	}
	w := scale
	pct := math.Max(0, b.Health/b.MaxHealth)

	dc.SetColor(color.RGBA{51, 51, 51, 255})
	dc.DrawRectangle(x-w/2, y-scale*0.7, w, 3)
	dc.Fill()

	if pct > 0.5 {
		dc.SetColor(color.RGBA{83, 255, 69, 255})
	} else if pct > 0.25 {
		dc.SetColor(color.RGBA{255, 149, 0, 255})
	} else {
		dc.SetColor(color.RGBA{255, 62, 62, 255})
	}
	dc.DrawRectangle(x-w/2, y-scale*0.7, w*pct, 3)
	dc.Fill()
}
