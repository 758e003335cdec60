package integrate

// Tsit5 returns the Tsitouras 5/4 Runge-Kutta method, a 5th order explicit
// method with an embedded 4th order error estimator.
//
// Reference: Ch. Tsitouras, "Runge-Kutta pairs of order 5(4) satisfying
// only the first column simplifying assumption", Computers & Mathematics
// with Applications, 62 (2011) 770-775.
func Tsit5() *Method {
	return &Method{
		Name:  "Tsit5",
		Order: 5,
		C: []float64{
			0,
			0.161,
			0.327,
			0.9,
			0.9800255409045097,
			1,
			1,
		},
		A: [][]float64{
			{},
			{0.161},
			{-0.008480655492356924, 0.335480655492357},
			{2.8971530571054935, -6.359448489975075, 4.362295432869581},
			{5.325864828439257, -11.748883564062828, 7.4955393428898365, -0.09249506636175525},
			{5.86145544294642, -12.92096931784711, 8.159367898576159, -0.071584973281401, -0.028269050394068383},
			{0.09646076681806523, 0.01, 0.4798896504144996, 1.379008574103742, -3.290069515436081, 2.324710524099774, 0},
		},
		B: []float64{
			0.09646076681806523,
			0.01,
			0.4798896504144996,
			1.379008574103742,
			-3.290069515436081,
			2.324710524099774,
			0,
		},
		Bhat: []float64{
			0.001780011052226,
			0.000816434459657,
			-0.007880878010262,
			0.144711007173263,
			-0.582357165452555,
			0.458082105929187,
			1.0 / 66.0,
		},
	}
}

// RK45 returns the Dormand-Prince 5(4) method, the classic adaptive pair
// used in MATLAB's ode45.
//
// Reference: J.R. Dormand & P.J. Prince, "A family of embedded Runge-Kutta
// formulae", Journal of Computational and Applied Mathematics, 6 (1980)
// 19-26.
func RK45() *Method {
	return &Method{
		Name:  "RK45",
		Order: 5,
		C: []float64{
			0,
			1.0 / 5.0,
			3.0 / 10.0,
			4.0 / 5.0,
			8.0 / 9.0,
			1,
			1,
		},
		A: [][]float64{
			{},
			{1.0 / 5.0},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		B: []float64{
			35.0 / 384.0,
			0,
			500.0 / 1113.0,
			125.0 / 192.0,
			-2187.0 / 6784.0,
			11.0 / 84.0,
			0,
		},
		// Error coefficients: B minus the embedded 4th order weights.
		Bhat: []float64{
			35.0/384.0 - 5179.0/57600.0,
			0,
			500.0/1113.0 - 7571.0/16695.0,
			125.0/192.0 - 393.0/640.0,
			-2187.0/6784.0 + 92097.0/339200.0,
			11.0/84.0 - 187.0/2100.0,
			-1.0 / 40.0,
		},
	}
}

// RK4 returns the classic 4th order Runge-Kutta method. It has no error
// estimator; use it with FixedStepOptions.
func RK4() *Method {
	return &Method{
		Name:  "RK4",
		Order: 4,
		C: []float64{
			0,
			0.5,
			0.5,
			1,
		},
		A: [][]float64{
			{},
			{0.5},
			{0, 0.5},
			{0, 0, 1},
		},
		B: []float64{
			1.0 / 6.0,
			1.0 / 3.0,
			1.0 / 3.0,
			1.0 / 6.0,
		},
		Bhat: []float64{0, 0, 0, 0},
	}
}

// Euler returns the forward Euler method. First order, fixed step only.
func Euler() *Method {
	return &Method{
		Name:  "Euler",
		Order: 1,
		C:     []float64{0},
		A:     [][]float64{{}},
		B:     []float64{1},
		Bhat:  []float64{0},
	}
}
