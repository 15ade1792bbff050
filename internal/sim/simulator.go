package sim

import (
	"context"
	"fmt"
)

type Config struct {
	Dt       float64
	Duration float64
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %f", c.Duration)
	}
	return nil
}

type Result struct {
	States     []State
	Times      []float64
	StepsTaken int
}

type Simulator struct {
	dyn        *Dynamics
	integrator *RK4
}

func New(dyn *Dynamics) *Simulator {
	return &Simulator{dyn: dyn, integrator: NewRK4()}
}

// Run integrates from x0 and records every step.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("sim: initial state has %d values, want %d", len(x0), s.dyn.StateDim())
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		States: make([]State, 0, steps+1),
		Times:  make([]float64, 0, steps+1),
	}

	x := x0.Clone()
	t := 0.0
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next, err := s.integrator.Step(s.dyn, x, t, cfg.Dt)
		if err != nil {
			return result, err
		}
		if !next.IsValid() {
			return result, fmt.Errorf("sim: state diverged at t=%.4f", t)
		}

		x = next
		t += cfg.Dt
		result.StepsTaken++
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}
	return result, nil
}

// RunWithCallback integrates and hands each state to the callback; the
// callback returning false stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, float64) bool) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	x := x0.Clone()
	t := 0.0
	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, t) {
			return nil
		}

		next, err := s.integrator.Step(s.dyn, x, t, cfg.Dt)
		if err != nil {
			return err
		}
		if !next.IsValid() {
			return fmt.Errorf("sim: state diverged at t=%.4f", t)
		}
		x = next
		t += cfg.Dt
	}
	return nil
}
