package layout

import (
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/settings"
)

type Params struct {
	// Scale sets the strength of both the repulsion (scale^2) and the edge springs (1/scale).
	Scale float64
	// RepulsionRadius is the clear spacing beyond which two rects do not repel.
	RepulsionRadius float64
	DT              float64
	// Cooloff is the velocity decay per step, in (0, 1).
	Cooloff float64
	// MaxDisplacement bounds how far a rect moves in a single step.
	MaxDisplacement  float64
	Epsilon          float64
	StableIterations int
	MaxIterations    int
	FlowStrength     float64
	FlowGap          float64
	// YCompress divides vertical forces, stretching the layout horizontally.
	YCompress float64
}

func DefaultParams() Params {
	return Params{
		Scale:            80,
		RepulsionRadius:  60,
		DT:               0.08,
		Cooloff:          0.85,
		MaxDisplacement:  50,
		Epsilon:          0.05,
		StableIterations: 5,
		MaxIterations:    2000,
		FlowStrength:     0.5,
		FlowGap:          40,
		YCompress:        2,
	}
}

func ParamsFromSettings(ls settings.LayoutSettings) Params {
	return Params{
		Scale:            ls.Scale,
		RepulsionRadius:  ls.RepulsionRadius,
		DT:               ls.DT,
		Cooloff:          ls.Cooloff,
		MaxDisplacement:  ls.MaxDisplacement,
		Epsilon:          ls.Epsilon,
		StableIterations: ls.StableIterations,
		MaxIterations:    ls.MaxIterations,
		FlowStrength:     ls.FlowStrength,
		FlowGap:          ls.FlowGap,
		YCompress:        ls.YCompress,
	}
}

func (p Params) Validate() error {
	switch {
	case p.Scale <= 0:
		return errors.NewConfigurationError("layout scale must be positive, got %v", p.Scale)
	case p.RepulsionRadius <= MinClearSpacing:
		return errors.NewConfigurationError("layout repulsion radius must exceed %v, got %v", MinClearSpacing, p.RepulsionRadius)
	case p.DT <= 0:
		return errors.NewConfigurationError("layout dt must be positive, got %v", p.DT)
	case p.Cooloff <= 0 || p.Cooloff >= 1:
		return errors.NewConfigurationError("layout cooloff must be in (0, 1), got %v", p.Cooloff)
	case p.MaxDisplacement <= 0:
		return errors.NewConfigurationError("layout max displacement must be positive, got %v", p.MaxDisplacement)
	case p.Epsilon <= 0:
		return errors.NewConfigurationError("layout epsilon must be positive, got %v", p.Epsilon)
	case p.StableIterations < 1:
		return errors.NewConfigurationError("layout stable iterations must be at least 1, got %d", p.StableIterations)
	case p.MaxIterations < 1:
		return errors.NewConfigurationError("layout max iterations must be at least 1, got %d", p.MaxIterations)
	case p.FlowStrength < 0:
		return errors.NewConfigurationError("layout flow strength must not be negative, got %v", p.FlowStrength)
	case p.FlowGap <= 0:
		return errors.NewConfigurationError("layout flow gap must be positive, got %v", p.FlowGap)
	case p.YCompress <= 0:
		return errors.NewConfigurationError("layout y compress must be positive, got %v", p.YCompress)
	}

	return nil
}
