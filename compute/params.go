// Package compute owns the GPU side of the frame pipeline: the storage
// buffer set, the NPC and projectile kernels (three dispatch modes each),
// and the throttled readback ring. A CPU backend implements the identical
// kernel semantics for headless runs and tests.
package compute

import (
	"github.com/pthm-cable/holdfast/config"
)

// Params is the constants table shared verbatim by the GLSL kernels and the
// CPU backend. One source of truth keeps both backends in lockstep.
type Params struct {
	MaxNPCs int32
	MaxProj int32

	GridW      int32
	GridH      int32
	CellSize   float32
	MaxPerCell int32

	SepRadius   float32
	SepStrength float32

	StationaryPush float32
	SameFaction    float32
	MoverVsSettled float32
	SettledShoved  float32

	DodgeOvertake float32
	DodgeCross    float32
	DodgeHeadOn   float32
	DodgeCap      float32
	AvoidCap      float32

	ArrivalThreshold float32
	BackoffMax       int32
	BackoffDecay     int32
	LateralSteer     float32

	CombatRange float32

	ProjDodgeRange     float32
	ProjDodgeAlignment float32
	ProjHalfLength     float32
	ProjHalfWidth      float32
}

// ParamsFromConfig builds the kernel constants table.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		MaxNPCs: int32(cfg.Pool.MaxNPCs),
		MaxProj: int32(cfg.Pool.MaxProjectiles),

		GridW:      int32(cfg.Grid.Width),
		GridH:      int32(cfg.Grid.Height),
		CellSize:   float32(cfg.Grid.CellSize),
		MaxPerCell: int32(cfg.Grid.MaxPerCell),

		SepRadius:   float32(cfg.Separation.Radius),
		SepStrength: float32(cfg.Separation.Strength),

		StationaryPush: float32(cfg.Separation.StationaryPush),
		SameFaction:    float32(cfg.Separation.SameFaction),
		MoverVsSettled: float32(cfg.Separation.MoverVsSettled),
		SettledShoved:  float32(cfg.Separation.SettledShoved),

		DodgeOvertake: float32(cfg.Separation.DodgeOvertake),
		DodgeCross:    float32(cfg.Separation.DodgeCross),
		DodgeHeadOn:   float32(cfg.Separation.DodgeHeadOn),
		DodgeCap:      float32(cfg.Separation.DodgeCap),
		AvoidCap:      float32(cfg.Separation.AvoidanceSpeedCap),

		ArrivalThreshold: float32(cfg.Movement.ArrivalThreshold),
		BackoffMax:       int32(cfg.Movement.BackoffMax),
		BackoffDecay:     int32(cfg.Movement.BackoffDecay),
		LateralSteer:     float32(cfg.Movement.LateralSteer),

		CombatRange: float32(cfg.Combat.Range),

		ProjDodgeRange:     float32(cfg.Projectile.DodgeRange),
		ProjDodgeAlignment: float32(cfg.Projectile.DodgeAlignment),
		ProjHalfLength:     float32(cfg.Projectile.HitHalfLength),
		ProjHalfWidth:      float32(cfg.Projectile.HitHalfWidth),
	}
}

// CellCount returns the number of grid cells.
func (p *Params) CellCount() int32 {
	return p.GridW * p.GridH
}

// CellIndex maps a world position to a clamped flat cell index.
func (p *Params) CellIndex(x, y float32) int32 {
	cx := int32(x / p.CellSize)
	cy := int32(y / p.CellSize)
	if cx < 0 {
		cx = 0
	} else if cx >= p.GridW {
		cx = p.GridW - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= p.GridH {
		cy = p.GridH - 1
	}
	return cy*p.GridW + cx
}
