package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"careagent/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM records the last prompts and returns a canned reply or error.
type fakeLLM struct {
	reply      string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeLLM) Complete(_ context.Context, system, user string, _ float32) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeStore keeps everything in maps.
type fakeStore struct {
	patients     map[string]*pkg.Patient
	appointments map[string]*pkg.Appointment
	alerts       []pkg.Alert
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		patients:     map[string]*pkg.Patient{},
		appointments: map[string]*pkg.Appointment{},
	}
}

func (s *fakeStore) GetPatient(_ context.Context, id string) (*pkg.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s not found", id)
	}
	return p, nil
}

func (s *fakeStore) CreateAppointment(_ context.Context, a *pkg.Appointment) error {
	s.appointments[a.ID] = a
	return nil
}

func (s *fakeStore) RescheduleAppointment(_ context.Context, id string, at time.Time) (*pkg.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s not found", id)
	}
	a.ScheduledAt = at
	return a, nil
}

func (s *fakeStore) CancelAppointment(_ context.Context, id string) (*pkg.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s not found", id)
	}
	a.Status = pkg.AppointmentCancelled
	return a, nil
}

func (s *fakeStore) InsertAlerts(_ context.Context, alerts []pkg.Alert) error {
	s.alerts = append(s.alerts, alerts...)
	return nil
}

func newTestCoordinator(llm *fakeLLM, store *fakeStore) *Coordinator {
	return NewCoordinator(llm, store)
}

func TestProcessMonitoringScenario(t *testing.T) {
	gw := &fakeLLM{reply: "Vitals reviewed, monitor closely."}
	store := newFakeStore()
	c := newTestCoordinator(gw, store)

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "Monitor patient: heart rate 110, BP 150/95",
		Context: map[string]interface{}{
			"patient_id":   "P001",
			"heart_rate":   110.0,
			"systolic_bp":  150.0,
			"diastolic_bp": 95.0,
		},
	})

	assert.Equal(t, "patient_monitoring", env.Action)
	assert.Equal(t, pkg.StatusSuccess, env.Status)
	require.Len(t, env.Alerts, 2)
	assert.Equal(t, pkg.AlertBloodPressure, env.Alerts[0].AlertType)
	assert.Equal(t, pkg.LevelHigh, env.Alerts[0].Level)
	assert.Equal(t, pkg.AlertHeartRate, env.Alerts[1].AlertType)
	assert.Equal(t, pkg.LevelMedium, env.Alerts[1].Level)
	assert.Equal(t, "Vitals reviewed, monitor closely.", env.Response)

	// Alerts were persisted to the history.
	assert.Len(t, store.alerts, 2)
}

func TestProcessSchedulingScenario(t *testing.T) {
	gw := &fakeLLM{reply: "should not be called"}
	store := newFakeStore()
	c := newTestCoordinator(gw, store)

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "Schedule an appointment for patient with diabetes next Tuesday",
	})

	assert.Equal(t, "appointment_scheduling", env.Action)
	assert.Equal(t, pkg.StatusSuccess, env.Status)
	assert.Empty(t, env.Alerts)
	require.NotNil(t, env.Appointment)
	assert.Equal(t, pkg.AppointmentScheduled, env.Appointment.Status)
	assert.Equal(t, "unknown", env.Appointment.PatientID)
	assert.Equal(t, "consultation", env.Appointment.Type)
	// Structured scheduling never goes through the gateway.
	assert.Zero(t, gw.calls)
	assert.Len(t, store.appointments, 1)
}

// A gateway timeout surfaces as status=error with a message, but the
// alerts computed from the supplied context are still returned.
func TestProcessGatewayTimeoutKeepsAlerts(t *testing.T) {
	gw := &fakeLLM{err: context.DeadlineExceeded}
	store := newFakeStore()
	c := newTestCoordinator(gw, store)

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "Monitor patient: heart rate 130",
		Context: map[string]interface{}{
			"patient_id": "P002",
			"heart_rate": 130.0,
		},
	})

	assert.Equal(t, pkg.StatusError, env.Status)
	assert.NotEmpty(t, env.ErrorMessage)
	require.Len(t, env.Alerts, 1)
	assert.Equal(t, pkg.AlertHeartRate, env.Alerts[0].AlertType)
	assert.Equal(t, pkg.LevelHigh, env.Alerts[0].Level)
}

func TestProcessInvalidObservation(t *testing.T) {
	gw := &fakeLLM{reply: "unused"}
	c := newTestCoordinator(gw, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "Monitor this patient",
		Context: map[string]interface{}{
			"heart_rate": "fast",
		},
	})

	assert.Equal(t, pkg.StatusError, env.Status)
	assert.Contains(t, env.ErrorMessage, "heart_rate")
	assert.Empty(t, env.Alerts)
	// Validation failures reject the request before any gateway call.
	assert.Zero(t, gw.calls)
}

func TestProcessOutOfRangeObservation(t *testing.T) {
	gw := &fakeLLM{reply: "unused"}
	c := newTestCoordinator(gw, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "Monitor this patient",
		Context: map[string]interface{}{
			"heart_rate": -20.0,
		},
	})

	assert.Equal(t, pkg.StatusError, env.Status)
	assert.Contains(t, env.ErrorMessage, "plausible range")
	assert.Zero(t, gw.calls)
}

func TestProcessReschedule(t *testing.T) {
	store := newFakeStore()
	store.appointments["apt-1"] = &pkg.Appointment{
		ID:          "apt-1",
		PatientID:   "P001",
		Status:      pkg.AppointmentScheduled,
		ScheduledAt: time.Now(),
	}
	c := newTestCoordinator(&fakeLLM{}, store)

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text:    "Please reschedule my visit",
		Context: map[string]interface{}{"appointment_id": "apt-1"},
	})

	assert.Equal(t, pkg.StatusSuccess, env.Status)
	require.NotNil(t, env.Appointment)
	assert.True(t, env.Appointment.ScheduledAt.After(time.Now().Add(13*24*time.Hour)))
}

func TestProcessRescheduleUnknownAppointment(t *testing.T) {
	c := newTestCoordinator(&fakeLLM{}, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text:    "reschedule my appointment",
		Context: map[string]interface{}{"appointment_id": "missing"},
	})

	assert.Equal(t, pkg.StatusError, env.Status)
	assert.NotEmpty(t, env.ErrorMessage)
}

func TestProcessCancel(t *testing.T) {
	store := newFakeStore()
	store.appointments["apt-2"] = &pkg.Appointment{ID: "apt-2", Status: pkg.AppointmentScheduled}
	c := newTestCoordinator(&fakeLLM{}, store)

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text:    "Cancel the appointment please",
		Context: map[string]interface{}{"appointment_id": "apt-2"},
	})

	assert.Equal(t, pkg.StatusSuccess, env.Status)
	require.NotNil(t, env.Appointment)
	assert.Equal(t, pkg.AppointmentCancelled, env.Appointment.Status)
}

func TestProcessSchedulingConsultation(t *testing.T) {
	gw := &fakeLLM{reply: "The earliest opening is Thursday morning."}
	c := newTestCoordinator(gw, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "What's the earliest available appointment for a diabetes consultation?",
	})

	assert.Equal(t, "appointment_scheduling", env.Action)
	assert.Equal(t, pkg.StatusSuccess, env.Status)
	assert.Equal(t, "The earliest opening is Thursday morning.", env.Response)
	assert.Equal(t, SchedulingPrompt, gw.lastSystem)
}

func TestProcessDrugDiscoveryCompoundScreen(t *testing.T) {
	gw := &fakeLLM{reply: "Both candidates show acceptable profiles."}
	c := newTestCoordinator(gw, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text:    "Analyze compound candidates for this condition",
		Context: map[string]interface{}{"condition": "hypertension"},
	})

	assert.Equal(t, "drug_discovery", env.Action)
	assert.Equal(t, pkg.StatusSuccess, env.Status)
	require.Len(t, env.Candidates, 2)
	assert.Equal(t, "hypertension", env.Candidates[0].TargetDisease)
	assert.Equal(t, DrugDiscoveryPrompt, gw.lastSystem)
}

func TestProcessTreatmentRecommendation(t *testing.T) {
	gw := &fakeLLM{reply: "Protocol attached."}
	c := newTestCoordinator(gw, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "I need a treatment recommendation for this medication plan",
		Context: map[string]interface{}{
			"contraindications": []interface{}{"kidney_disease"},
		},
	})

	assert.Equal(t, "drug_discovery", env.Action)
	require.NotNil(t, env.Recommendation)
	assert.Equal(t, []string{"kidney_disease"}, env.Recommendation.Contraindications)
}

func TestProcessRiskAssessment(t *testing.T) {
	c := newTestCoordinator(&fakeLLM{}, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "Run a risk assessment on these vitals",
		Context: map[string]interface{}{
			"age":          68.0,
			"risk_factors": []interface{}{"Smoking history", "Diabetes complications"},
		},
	})

	assert.Equal(t, "patient_monitoring", env.Action)
	require.NotNil(t, env.Assessment)
	assert.InDelta(t, 5.8, env.Assessment.RiskScore, 0.001)
	assert.Equal(t, "medium", env.Assessment.RiskLevel)
}

func TestProcessRiskAssessmentFromStoredPatient(t *testing.T) {
	store := newFakeStore()
	store.patients["P003"] = &pkg.Patient{
		ID:          "P003",
		Age:         70,
		RiskFactors: []string{"Smoking history", "Family history", "Sedentary", "Obesity"},
	}
	c := newTestCoordinator(&fakeLLM{}, store)

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text:    "risk assessment using the latest vitals",
		Context: map[string]interface{}{"patient_id": "P003"},
	})

	require.NotNil(t, env.Assessment)
	assert.InDelta(t, 10.0, env.Assessment.RiskScore, 0.001)
	assert.Equal(t, "high", env.Assessment.RiskLevel)
}

func TestProcessGeneralFallback(t *testing.T) {
	gw := &fakeLLM{reply: "Adults need 7-9 hours of sleep."}
	c := newTestCoordinator(gw, newFakeStore())

	env := c.Process(context.Background(), pkg.AgentRequest{
		Text: "Tell me about healthy sleep habits",
	})

	assert.Equal(t, "general_query", env.Action)
	assert.Equal(t, pkg.StatusSuccess, env.Status)
	assert.Equal(t, GeneralPrompt, gw.lastSystem)
	assert.Empty(t, env.Alerts)
}

func TestObservationFromContext(t *testing.T) {
	obs, patientID, err := ObservationFromContext(map[string]interface{}{
		"patient_id":               "P002",
		"heart_rate":               105,
		"blood_pressure_systolic":  160.0,
		"blood_pressure_diastolic": "95",
		"temperature":              100.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "P002", patientID)
	require.NotNil(t, obs.HeartRate)
	assert.Equal(t, 105.0, *obs.HeartRate)
	require.NotNil(t, obs.SystolicBP)
	assert.Equal(t, 160.0, *obs.SystolicBP)
	require.NotNil(t, obs.DiastolicBP)
	assert.Equal(t, 95.0, *obs.DiastolicBP)
	require.NotNil(t, obs.TemperatureF)
	assert.Equal(t, 100.2, *obs.TemperatureF)
	assert.Nil(t, obs.GlucoseMgDl)
}

func TestObservationFromContextIgnoresUnknownKeys(t *testing.T) {
	obs, patientID, err := ObservationFromContext(map[string]interface{}{
		"preferred_time": "morning",
	})
	require.NoError(t, err)
	assert.Equal(t, "unknown", patientID)
	assert.True(t, obs.IsEmpty())
}
