package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"careagent/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAlert() pkg.Alert {
	return pkg.Alert{
		PatientID:         "P001",
		AlertType:         pkg.AlertBloodPressure,
		Level:             pkg.LevelHigh,
		Message:           "Hypertension detected",
		RecommendedAction: "Immediate medical evaluation required",
		Timestamp:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestAssembleSuccess(t *testing.T) {
	env := Assemble(pkg.AgentMonitoring, []pkg.Alert{sampleAlert()}, "all readings reviewed", nil)
	assert.Equal(t, "patient_monitoring", env.Action)
	assert.Equal(t, pkg.StatusSuccess, env.Status)
	assert.Empty(t, env.ErrorMessage)
	assert.Equal(t, "all readings reviewed", env.Response)
	require.Len(t, env.Alerts, 1)
}

// A gateway failure flips the status but the locally computed alerts
// are still in the envelope.
func TestAssembleGatewayFailureKeepsAlerts(t *testing.T) {
	env := Assemble(pkg.AgentMonitoring, []pkg.Alert{sampleAlert()}, "", errors.New("gateway timeout"))
	assert.Equal(t, pkg.StatusError, env.Status)
	assert.Equal(t, "gateway timeout", env.ErrorMessage)
	require.Len(t, env.Alerts, 1)
	assert.Equal(t, pkg.AlertBloodPressure, env.Alerts[0].AlertType)
}

// Nil alert slices come out as empty, never null, so the JSON always
// carries an "alerts" array.
func TestAssembleNilAlerts(t *testing.T) {
	env := Assemble(pkg.AgentScheduling, nil, "booked", nil)
	require.NotNil(t, env.Alerts)
	assert.Empty(t, env.Alerts)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"alerts":[]`)
}

func TestEnvelopeJSONRoundTrip(t *testing.T) {
	original := Assemble(pkg.AgentMonitoring, []pkg.Alert{sampleAlert()}, "reviewed", nil)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded pkg.ResponseEnvelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestEnvelopeActionMirrorsAgent(t *testing.T) {
	for _, agent := range []pkg.AgentType{
		pkg.AgentScheduling, pkg.AgentDrugDiscovery, pkg.AgentMonitoring, pkg.AgentGeneral,
	} {
		env := Assemble(agent, nil, "", nil)
		assert.Equal(t, string(agent), env.Action)
	}
}
