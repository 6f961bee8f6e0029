package control

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"

	"go.viam.com/benchlog/logging"
	"go.viam.com/benchlog/telemetry"
)

const (
	positionField = "curvilinear_position"
	minTau        = 1e-9
)

// FirstOrderModel is the step response `A(1 - exp(-t/Tau))`.
type FirstOrderModel struct {
	A   float64
	Tau float64
}

// Eval returns the modelled response at `t`.
func (m FirstOrderModel) Eval(t float64) float64 {
	return m.A * (1 - math.Exp(-t/m.Tau))
}

// FitFirstOrder least-squares fits a first order step response to the samples, starting from
// A = 1 and Tau = 1.
func FitFirstOrder(t, y []float64) (FirstOrderModel, error) {
	if len(t) != len(y) {
		return FirstOrderModel{}, errors.Errorf("have %d times for %d samples", len(t), len(y))
	}
	if len(t) < 2 {
		return FirstOrderModel{}, errors.Errorf("need at least 2 samples, got %d", len(t))
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			model := FirstOrderModel{A: x[0], Tau: math.Max(math.Abs(x[1]), minTau)}
			var sum float64
			for idx, tm := range t {
				residual := model.Eval(tm) - y[idx]
				sum += residual * residual
			}
			return sum
		},
	}
	result, err := optimize.Minimize(problem, []float64{1, 1}, nil, &optimize.NelderMead{})
	if err != nil {
		return FirstOrderModel{}, errors.Wrap(err, "fitting first order model")
	}
	return FirstOrderModel{A: result.X[0], Tau: math.Max(math.Abs(result.X[1]), minTau)}, nil
}

// Gains are PID gains.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// PlacePoles returns the PID gains putting the closed loop poles of a first order plant, driven
// at `pwm` during the recorded step, at `-w1`, `-w2` and `-w3`.
func PlacePoles(model FirstOrderModel, pwm, w1, w2, w3 float64) (Gains, error) {
	if pwm == 0 {
		return Gains{}, errors.New("pwm must be non-zero")
	}
	if model.Tau <= 0 {
		return Gains{}, errors.Errorf("time constant must be positive, got %v", model.Tau)
	}
	damping := 1 / model.Tau
	drive := model.A * damping / pwm
	if drive == 0 {
		return Gains{}, errors.New("model has no gain")
	}

	return Gains{
		Kp: (w1*w2 + w1*w3 + w2*w3) / drive,
		Ki: w1 * w2 * w3 / drive,
		Kd: (w1 + w2 + w3 - damping) / drive,
	}, nil
}

// Tuning holds the inputs of a speed step analysis.
type Tuning struct {
	PWM       float64
	W1        float64
	W2        float64
	W3        float64
	Bandwidth float64
}

// DefaultTuning returns poles at 1, 0.5 and 0.25 Hz for a 400 pwm step.
func DefaultTuning() Tuning {
	return Tuning{
		PWM:       400,
		W1:        2 * math.Pi,
		W2:        math.Pi,
		W3:        math.Pi / 2,
		Bandwidth: DefaultBandwidth,
	}
}

// SpeedStep is the analysis of a recorded speed step. Slices are indexed like the input records;
// index 0 has no derivative and is left out of the fit.
type SpeedStep struct {
	Times     []float64
	RawSpeed  []float64
	Estimated []float64
	Model     FirstOrderModel
	Gains     Gains
}

// AnalyzeSpeedStep differentiates `curvilinear_position`, re-runs the speed estimator over it,
// fits a first order model to the raw speed and places the poles.
func AnalyzeSpeedStep(seq telemetry.Sequence, tuning Tuning, logger logging.Logger) (*SpeedStep, error) {
	if len(seq) < 3 {
		return nil, errors.Errorf("need at least 3 records, got %d", len(seq))
	}
	est, err := NewEstimator(tuning.Bandwidth)
	if err != nil {
		return nil, err
	}

	step := &SpeedStep{
		Times:     make([]float64, len(seq)),
		RawSpeed:  make([]float64, len(seq)),
		Estimated: make([]float64, len(seq)),
	}
	fitT := make([]float64, 0, len(seq))
	fitY := make([]float64, 0, len(seq))
	for idx, record := range seq {
		step.Times[idx] = record.Time
		if idx == 0 {
			continue
		}
		position, ok := record.Get(positionField)
		if !ok {
			return nil, errors.Errorf("record %d has no %s field", idx, positionField)
		}
		previous, _ := seq[idx-1].Get(positionField)
		dt, _ := record.Get(telemetry.DeltaTimeField)

		est.Update(dt, position-previous)
		step.Estimated[idx] = est.Speed()
		if dt <= 0 {
			logger.Debugw("Skipping record without duration", "record", idx)
			continue
		}
		step.RawSpeed[idx] = (position - previous) / dt
		fitT = append(fitT, record.Time)
		fitY = append(fitY, step.RawSpeed[idx])
	}

	if step.Model, err = FitFirstOrder(fitT, fitY); err != nil {
		return nil, err
	}
	logger.Infow("Fitted first order model", "A", step.Model.A, "tau", step.Model.Tau)
	if step.Gains, err = PlacePoles(step.Model, tuning.PWM, tuning.W1, tuning.W2, tuning.W3); err != nil {
		return nil, err
	}
	return step, nil
}
