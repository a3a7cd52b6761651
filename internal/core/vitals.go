package core

import (
	"errors"
	"fmt"
	"time"

	"careagent/pkg"
)

// ErrInvalidObservation marks a reading that is rejected before
// evaluation, e.g. a negative heart rate. It is a local validation
// failure, distinct from a gateway failure.
var ErrInvalidObservation = errors.New("invalid observation")

// Thresholds holds the vital-sign cutoffs used by Evaluate. The exact
// numbers are a clinical reconstruction rather than regulation, so they
// are carried as data here instead of being baked into the rule code.
type Thresholds struct {
	SystolicCritical  float64
	DiastolicCritical float64
	SystolicHigh      float64
	DiastolicHigh     float64

	HeartRateHigh   float64 // tachycardia cutoff
	HeartRateLow    float64 // bradycardia cutoff
	HeartRateMedium float64

	TemperatureHigh   float64
	TemperatureMedium float64

	GlucoseHigh   float64
	GlucoseMedium float64
}

// DefaultThresholds returns the standard cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SystolicCritical:  180,
		DiastolicCritical: 110,
		SystolicHigh:      140,
		DiastolicHigh:     90,

		HeartRateHigh:   120,
		HeartRateLow:    40,
		HeartRateMedium: 100,

		TemperatureHigh:   103,
		TemperatureMedium: 100.4,

		GlucoseHigh:   250,
		GlucoseMedium: 180,
	}
}

// recommendedActions maps (alert type, level) to the fixed action text
// attached to each alert.
var recommendedActions = map[pkg.AlertType]map[pkg.AlertLevel]string{
	pkg.AlertBloodPressure: {
		pkg.LevelCritical: "Call emergency services; begin acute blood pressure management",
		pkg.LevelHigh:     "Immediate medical evaluation required",
	},
	pkg.AlertHeartRate: {
		pkg.LevelHigh:   "Urgent cardiology evaluation required",
		pkg.LevelMedium: "Monitor closely, consider cardiology consultation",
	},
	pkg.AlertTemperature: {
		pkg.LevelHigh:   "Administer antipyretics and evaluate for infection",
		pkg.LevelMedium: "Recheck temperature in four hours; encourage fluids",
	},
	pkg.AlertGlucose: {
		pkg.LevelHigh:   "Check ketones and adjust insulin per protocol",
		pkg.LevelMedium: "Repeat glucose measurement; review diet and medication",
	},
}

// obsBounds are the plausibility limits applied before evaluation.
type obsBounds struct {
	hrMin, hrMax     float64
	bpMin, bpMax     float64
	tempMin, tempMax float64
	gluMin, gluMax   float64
}

var defaultBounds = obsBounds{
	hrMin: 1, hrMax: 300,
	bpMin: 1, bpMax: 350,
	tempMin: 85, tempMax: 115,
	gluMin: 1, gluMax: 1500,
}

// validate rejects readings outside plausible human ranges before any
// rule runs. A missing field is always valid; absent is not zero.
func (o obsBounds) validate(obs pkg.Observation) error {
	checks := []struct {
		name  string
		value *float64
		min   float64
		max   float64
	}{
		{"heart_rate", obs.HeartRate, o.hrMin, o.hrMax},
		{"systolic_bp", obs.SystolicBP, o.bpMin, o.bpMax},
		{"diastolic_bp", obs.DiastolicBP, o.bpMin, o.bpMax},
		{"temperature_f", obs.TemperatureF, o.tempMin, o.tempMax},
		{"glucose_mg_dl", obs.GlucoseMgDl, o.gluMin, o.gluMax},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if *c.value < c.min || *c.value > c.max {
			return fmt.Errorf("%w: %s %.1f outside plausible range [%.1f, %.1f]",
				ErrInvalidObservation, c.name, *c.value, c.min, c.max)
		}
	}
	return nil
}

// Evaluate maps an observation to zero or more alerts. Each rule is
// evaluated independently, so several alerts may fire for one reading.
// The returned slice follows a fixed field-check order (blood pressure,
// heart rate, temperature, glucose) for determinism. An observation
// with no fields set yields no alerts.
func (t Thresholds) Evaluate(obs pkg.Observation, patientID string) ([]pkg.Alert, error) {
	if err := defaultBounds.validate(obs); err != nil {
		return nil, err
	}

	now := time.Now()
	mk := func(typ pkg.AlertType, level pkg.AlertLevel, message string) pkg.Alert {
		return pkg.Alert{
			PatientID:         patientID,
			AlertType:         typ,
			Level:             level,
			Message:           message,
			RecommendedAction: recommendedActions[typ][level],
			Timestamp:         now,
		}
	}

	var alerts []pkg.Alert

	// Blood pressure: either component alone can escalate.
	if obs.SystolicBP != nil || obs.DiastolicBP != nil {
		var sys, dia float64
		if obs.SystolicBP != nil {
			sys = *obs.SystolicBP
		}
		if obs.DiastolicBP != nil {
			dia = *obs.DiastolicBP
		}
		switch {
		case sys >= t.SystolicCritical || dia >= t.DiastolicCritical:
			alerts = append(alerts, mk(pkg.AlertBloodPressure, pkg.LevelCritical, "Hypertensive crisis"))
		case sys >= t.SystolicHigh || dia >= t.DiastolicHigh:
			alerts = append(alerts, mk(pkg.AlertBloodPressure, pkg.LevelHigh, "Hypertension detected"))
		}
	}

	if obs.HeartRate != nil {
		hr := *obs.HeartRate
		switch {
		case hr >= t.HeartRateHigh || hr <= t.HeartRateLow:
			alerts = append(alerts, mk(pkg.AlertHeartRate, pkg.LevelHigh, "Abnormal heart rate"))
		case hr >= t.HeartRateMedium:
			alerts = append(alerts, mk(pkg.AlertHeartRate, pkg.LevelMedium, "Elevated heart rate"))
		}
	}

	if obs.TemperatureF != nil {
		temp := *obs.TemperatureF
		switch {
		case temp >= t.TemperatureHigh:
			alerts = append(alerts, mk(pkg.AlertTemperature, pkg.LevelHigh, "Fever"))
		case temp >= t.TemperatureMedium:
			alerts = append(alerts, mk(pkg.AlertTemperature, pkg.LevelMedium, "Low-grade fever"))
		}
	}

	if obs.GlucoseMgDl != nil {
		glu := *obs.GlucoseMgDl
		switch {
		case glu >= t.GlucoseHigh:
			alerts = append(alerts, mk(pkg.AlertGlucose, pkg.LevelHigh, "Hyperglycemia"))
		case glu >= t.GlucoseMedium:
			alerts = append(alerts, mk(pkg.AlertGlucose, pkg.LevelMedium, "Elevated glucose"))
		}
	}

	return alerts, nil
}
