// Package control re-estimates speed from recorded positions and derives PID gains from a
// recorded speed step.
package control

import (
	"github.com/pkg/errors"
)

// DefaultBandwidth is the bandwidth of the on-robot speed estimator, in rad/s.
const DefaultBandwidth = 40.0

// Estimator is a phase-locked loop tracking a distance and its rate. It is not safe for
// concurrent use.
type Estimator struct {
	bandwidth float64
	kp        float64
	ki        float64

	distance float64
	estimate float64
	speed    float64
}

// NewEstimator returns an estimator with the given loop bandwidth.
func NewEstimator(bandwidth float64) (*Estimator, error) {
	est := &Estimator{}
	if err := est.SetBandwidth(bandwidth); err != nil {
		return nil, err
	}
	return est, nil
}

// SetBandwidth places both loop poles at `-bandwidth`. The state is kept.
func (est *Estimator) SetBandwidth(bandwidth float64) error {
	if bandwidth <= 0 {
		return errors.Errorf("estimator bandwidth must be positive, got %v", bandwidth)
	}
	est.bandwidth = bandwidth
	est.kp = 2 * bandwidth
	est.ki = 0.25 * est.kp * est.kp
	return nil
}

// Bandwidth returns the loop bandwidth in rad/s.
func (est *Estimator) Bandwidth() float64 {
	return est.bandwidth
}

// Update advances the loop by `dt` seconds during which the robot travelled `distance`.
func (est *Estimator) Update(dt, distance float64) {
	est.estimate += est.speed * dt
	est.distance += distance
	delta := est.distance - est.estimate
	est.estimate += dt * est.kp * delta
	est.speed += dt * est.ki * delta
}

// Speed returns the current rate estimate.
func (est *Estimator) Speed() float64 {
	return est.speed
}

// Distance returns the current position estimate.
func (est *Estimator) Distance() float64 {
	return est.estimate
}

// Reset zeroes the loop state.
func (est *Estimator) Reset() {
	est.distance = 0
	est.estimate = 0
	est.speed = 0
}
