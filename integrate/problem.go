package integrate

import (
	"math"

	"github.com/brucejunlee/data-driven-discretization-1d/equation"
	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/model"
)

// ModelProblem wraps a trained coefficient model into an initial value
// problem: the right-hand side is the model's predicted time derivative at
// inference settings. A prediction failure poisons the state with NaN so
// Solve stops instead of silently continuing.
func ModelProblem(m *model.Model, u0 []float64, tspan [2]float64) *Problem {
	return &Problem{
		F: func(t float64, u []float64) []float64 {
			du, err := m.PredictTimeDerivative(field.Field{u}, false)
			if err != nil {
				return nanState(len(u))
			}
			return du[0]
		},
		U0:    append([]float64(nil), u0...),
		Tspan: tspan,
	}
}

// BaselineProblem wraps the classical finite-difference discretization of an
// equation into an initial value problem at the equation's resolution.
func BaselineProblem(eq equation.Equation, u0 []float64, tspan [2]float64) *Problem {
	return &Problem{
		F: func(t float64, u []float64) []float64 {
			stacked, err := model.BaselineDerivatives(field.Field{u}, eq)
			if err != nil {
				return nanState(len(u))
			}
			du := make([]float64, len(u))
			timeChannel := len(stacked[0][0]) - 1
			for i := range du {
				du[i] = stacked[0][i][timeChannel]
			}
			return du
		},
		U0:    append([]float64(nil), u0...),
		Tspan: tspan,
	}
}

func nanState(n int) []float64 {
	u := make([]float64, n)
	for i := range u {
		u[i] = math.NaN()
	}
	return u
}
