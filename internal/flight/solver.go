package flight

import (
	"context"
	"fmt"
)

// ctxCheckInterval is how many solver steps pass between context
// cancellation checks.
const ctxCheckInterval = 1024

// Emit receives trajectory points as they are produced.
type Emit func(State) error

// Solver integrates one stage from its initial conditions until the
// termination condition fires, emitting every computed point.
type Solver interface {
	Run(ctx context.Context, m Model, tc TerminationCondition, ics State, emit Emit) (State, error)
}

// ForwardsEuler is a fixed-step forward Euler integrator.
type ForwardsEuler struct {
	// Step is the integration step in seconds.
	Step float64
}

func (fe ForwardsEuler) Run(ctx context.Context, m Model, tc TerminationCondition, ics State, emit Emit) (State, error) {
	if fe.Step <= 0 {
		return ics, fmt.Errorf("flight: integration step must be positive, got %v", fe.Step)
	}

	state := ics
	if err := emit(state); err != nil {
		return state, err
	}

	for steps := 0; !tc.Done(state); steps++ {
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return state, err
			}
		}

		rate, err := m.Eval(state)
		if err != nil {
			return state, err
		}

		rate.Scale(fe.Step)
		state.Apply(rate)
		state.Lng = WrapLongitude(state.Lng)
		state.Advance(fe.Step)

		if err := emit(state); err != nil {
			return state, err
		}
	}

	return state, nil
}

// Stage pairs the motion of one flight phase with its end condition.
type Stage struct {
	Model     Model
	Terminate TerminationCondition
}

// Profile is a chain of stages run back to back: each stage starts
// from the final state of the previous one, with the stage clock
// reset.
type Profile []Stage

// Run integrates the whole profile, emitting every point exactly once
// (the seam point between stages is not repeated).
func (p Profile) Run(ctx context.Context, solver Solver, ics State, emit Emit) error {
	state := ics

	for i, stage := range p {
		first := true
		stageEmit := func(s State) error {
			// Stages after the first re-emit their initial point.
			if first {
				first = false
				if i > 0 {
					return nil
				}
			}
			return emit(s)
		}

		final, err := solver.Run(ctx, stage.Model, stage.Terminate, state, stageEmit)
		if err != nil {
			return err
		}

		state = final
		state.StageTime = 0
	}

	return nil
}

// Decimate thins a trajectory to every nth point, always keeping the
// first and last.
func Decimate(points []State, n int) []State {
	if n <= 1 || len(points) == 0 {
		return points
	}

	out := make([]State, 0, len(points)/n+2)
	for i, p := range points {
		if i%n == 0 {
			out = append(out, p)
		}
	}
	if (len(points)-1)%n != 0 {
		out = append(out, points[len(points)-1])
	}
	return out
}
