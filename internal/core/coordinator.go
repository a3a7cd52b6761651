package core

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"careagent/internal/llm"
	"careagent/pkg"

	"github.com/google/uuid"
)

// Default booking offsets used when a request does not supply a date.
const (
	scheduleLead   = 7 * 24 * time.Hour
	rescheduleLead = 14 * 24 * time.Hour
)

// Store is the persistence surface the coordinator needs. It is
// implemented by db.Repository; tests supply fakes.
type Store interface {
	GetPatient(ctx context.Context, id string) (*pkg.Patient, error)
	CreateAppointment(ctx context.Context, a *pkg.Appointment) error
	RescheduleAppointment(ctx context.Context, id string, at time.Time) (*pkg.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (*pkg.Appointment, error)
	InsertAlerts(ctx context.Context, alerts []pkg.Alert) error
}

// Coordinator routes each request to one of the four agents and runs
// the selected handler. Routing, vital evaluation and assembly are pure
// and local; only the single gateway call per request can block or
// fail. Requests share no mutable state, so one Coordinator serves any
// number of concurrent callers.
type Coordinator struct {
	LLM        llm.Client
	Store      Store
	Thresholds Thresholds
}

// NewCoordinator constructs a Coordinator with default thresholds.
func NewCoordinator(client llm.Client, store Store) *Coordinator {
	return &Coordinator{
		LLM:        client,
		Store:      store,
		Thresholds: DefaultThresholds(),
	}
}

// Process handles one natural-language request end to end: route the
// text, evaluate any supplied vitals, run the agent handler (one
// gateway attempt, bounded by ctx) and assemble the envelope. Local
// failures and gateway failures both surface as status=error, but
// locally computed alerts are always carried through.
func (c *Coordinator) Process(ctx context.Context, req pkg.AgentRequest) pkg.ResponseEnvelope {
	agent := Route(req.Text)

	var alerts []pkg.Alert
	if agent == pkg.AgentMonitoring && len(req.Context) > 0 {
		obs, patientID, err := ObservationFromContext(req.Context)
		if err != nil {
			return Assemble(agent, nil, "", err)
		}
		alerts, err = c.Thresholds.Evaluate(obs, patientID)
		if err != nil {
			return Assemble(agent, nil, "", err)
		}
		if len(alerts) > 0 && c.Store != nil {
			// Persist for the alert history; never block the response on it.
			if err := c.Store.InsertAlerts(ctx, alerts); err != nil {
				log.Println("failed to persist alerts:", err)
			}
		}
	}

	switch agent {
	case pkg.AgentScheduling:
		return c.handleScheduling(ctx, req, alerts)
	case pkg.AgentDrugDiscovery:
		return c.handleDrugDiscovery(ctx, req, alerts)
	case pkg.AgentMonitoring:
		return c.handleMonitoring(ctx, req, alerts)
	default:
		return c.handleGeneral(ctx, req, alerts)
	}
}

// handleScheduling covers the appointment agent. Structured sub-intents
// act on the store directly; anything else is a scheduling consultation
// via the gateway. Reschedule must be checked before schedule because
// "reschedule" contains "schedule".
func (c *Coordinator) handleScheduling(ctx context.Context, req pkg.AgentRequest, alerts []pkg.Alert) pkg.ResponseEnvelope {
	lower := strings.ToLower(req.Text)
	switch {
	case strings.Contains(lower, "reschedule"):
		id := stringValue(req.Context, "appointment_id")
		if id == "" {
			return Assemble(pkg.AgentScheduling, alerts, "", fmt.Errorf("reschedule requires an appointment_id in context"))
		}
		appt, err := c.Store.RescheduleAppointment(ctx, id, time.Now().Add(rescheduleLead))
		if err != nil {
			return Assemble(pkg.AgentScheduling, alerts, "", err)
		}
		env := Assemble(pkg.AgentScheduling, alerts, "Appointment rescheduled successfully", nil)
		env.Appointment = appt
		return env

	case strings.Contains(lower, "cancel"):
		id := stringValue(req.Context, "appointment_id")
		if id == "" {
			return Assemble(pkg.AgentScheduling, alerts, "", fmt.Errorf("cancel requires an appointment_id in context"))
		}
		appt, err := c.Store.CancelAppointment(ctx, id)
		if err != nil {
			return Assemble(pkg.AgentScheduling, alerts, "", err)
		}
		env := Assemble(pkg.AgentScheduling, alerts, "Appointment cancelled successfully", nil)
		env.Appointment = appt
		return env

	case strings.Contains(lower, "schedule") || strings.Contains(lower, "book"):
		appt := &pkg.Appointment{
			ID:          uuid.NewString(),
			PatientID:   stringValueOr(req.Context, "patient_id", "unknown"),
			DoctorID:    stringValueOr(req.Context, "doctor_id", "available"),
			ScheduledAt: time.Now().Add(scheduleLead),
			Type:        stringValueOr(req.Context, "appointment_type", "consultation"),
			Status:      pkg.AppointmentScheduled,
		}
		if err := c.Store.CreateAppointment(ctx, appt); err != nil {
			return Assemble(pkg.AgentScheduling, alerts, "", err)
		}
		env := Assemble(pkg.AgentScheduling, alerts, "Appointment scheduled successfully", nil)
		env.Appointment = appt
		return env

	default:
		reply, err := c.LLM.Complete(ctx, SchedulingPrompt, req.Text, tempScheduling)
		return Assemble(pkg.AgentScheduling, alerts, reply, err)
	}
}

// handleDrugDiscovery always consults the gateway for the analysis
// text; compound screens and treatment recommendations additionally
// attach structured results computed locally.
func (c *Coordinator) handleDrugDiscovery(ctx context.Context, req pkg.AgentRequest, alerts []pkg.Alert) pkg.ResponseEnvelope {
	user := fmt.Sprintf("Analyze this drug discovery request: %s", req.Text)
	reply, gwErr := c.LLM.Complete(ctx, DrugDiscoveryPrompt, user, tempDrug)

	env := Assemble(pkg.AgentDrugDiscovery, alerts, reply, gwErr)
	lower := strings.ToLower(req.Text)
	switch {
	case strings.Contains(lower, "analyze compound"):
		env.Candidates = AnalyzeCandidates(stringValueOr(req.Context, "condition", "Unknown"))
	case strings.Contains(lower, "treatment recommendation"):
		rec := RecommendTreatment(stringList(req.Context, "contraindications"))
		env.Recommendation = &rec
	}
	return env
}

// handleMonitoring answers vitals and risk questions. A risk assessment
// is computed locally from the context (or the stored patient profile);
// everything else is gateway analysis of the monitoring scenario, with
// any alerts already evaluated by Process.
func (c *Coordinator) handleMonitoring(ctx context.Context, req pkg.AgentRequest, alerts []pkg.Alert) pkg.ResponseEnvelope {
	if strings.Contains(strings.ToLower(req.Text), "risk assessment") {
		factors := stringList(req.Context, "risk_factors")
		age, ageOK := numericValue(req.Context, "age")
		if !ageOK && c.Store != nil {
			if id := stringValue(req.Context, "patient_id"); id != "" {
				if p, err := c.Store.GetPatient(ctx, id); err == nil {
					age = float64(p.Age)
					if len(factors) == 0 {
						factors = p.RiskFactors
					}
				}
			}
		}
		assessment := AssessRisk(factors, age)
		env := Assemble(pkg.AgentMonitoring, alerts, "Risk assessment complete", nil)
		env.Assessment = &assessment
		return env
	}

	user := fmt.Sprintf("Analyze this patient monitoring scenario: %s", req.Text)
	reply, err := c.LLM.Complete(ctx, MonitoringPrompt, user, tempMonitoring)
	return Assemble(pkg.AgentMonitoring, alerts, reply, err)
}

func (c *Coordinator) handleGeneral(ctx context.Context, req pkg.AgentRequest, alerts []pkg.Alert) pkg.ResponseEnvelope {
	reply, err := c.LLM.Complete(ctx, GeneralPrompt, req.Text, tempGeneral)
	return Assemble(pkg.AgentGeneral, alerts, reply, err)
}

// ObservationFromContext extracts vital signs and the patient ID from a
// request context. A vital key that is present but not numeric is an
// InvalidObservation; absent keys simply stay unset. Both the canonical
// keys (systolic_bp) and the longhand ones seen in monitoring requests
// (blood_pressure_systolic) are accepted.
func ObservationFromContext(c map[string]interface{}) (pkg.Observation, string, error) {
	var obs pkg.Observation
	fields := []struct {
		dst  **float64
		keys []string
	}{
		{&obs.HeartRate, []string{"heart_rate"}},
		{&obs.SystolicBP, []string{"systolic_bp", "blood_pressure_systolic"}},
		{&obs.DiastolicBP, []string{"diastolic_bp", "blood_pressure_diastolic"}},
		{&obs.TemperatureF, []string{"temperature_f", "temperature"}},
		{&obs.GlucoseMgDl, []string{"glucose_mg_dl", "glucose"}},
	}
	for _, f := range fields {
		for _, key := range f.keys {
			raw, ok := c[key]
			if !ok {
				continue
			}
			v, ok := toFloat(raw)
			if !ok {
				return pkg.Observation{}, "", fmt.Errorf("%w: %s is not numeric (%v)", ErrInvalidObservation, key, raw)
			}
			val := v
			*f.dst = &val
			break
		}
	}
	return obs, stringValueOr(c, "patient_id", "unknown"), nil
}

// AnalyzeCandidates returns the canned compound screen for a condition.
func AnalyzeCandidates(condition string) []pkg.DrugCandidate {
	return []pkg.DrugCandidate{
		{
			Name:             "Compound-A123",
			Mechanism:        "Selective inhibitor",
			TargetDisease:    condition,
			SafetyScore:      8.5,
			EfficacyScore:    7.2,
			DevelopmentStage: "Phase II",
		},
		{
			Name:             "BioMol-X456",
			Mechanism:        "Receptor agonist",
			TargetDisease:    condition,
			SafetyScore:      7.8,
			EfficacyScore:    8.1,
			DevelopmentStage: "Preclinical",
		},
	}
}

// RecommendTreatment produces the structured treatment plan template.
func RecommendTreatment(contraindications []string) pkg.TreatmentRecommendation {
	if contraindications == nil {
		contraindications = []string{}
	}
	return pkg.TreatmentRecommendation{
		PrimaryTreatment:       "Evidence-based therapy protocol",
		AlternativeOptions:     []string{"Option A", "Option B"},
		MonitoringRequirements: []string{"Weekly lab work", "Monthly check-ups"},
		Contraindications:      contraindications,
		ExpectedOutcomes:       "Positive response expected in 4-6 weeks",
	}
}

// AssessRisk scores a patient: two points per risk factor plus a tenth
// of a point per year of age over fifty, banded into low/medium/high at
// 5 and 10.
func AssessRisk(riskFactors []string, age float64) pkg.RiskAssessment {
	if age == 0 {
		age = 50
	}
	score := float64(len(riskFactors))*2 + (age-50)*0.1
	level := "low"
	switch {
	case score >= 10:
		level = "high"
	case score >= 5:
		level = "medium"
	}
	if riskFactors == nil {
		riskFactors = []string{}
	}
	return pkg.RiskAssessment{
		RiskScore:           score,
		RiskLevel:           level,
		ContributingFactors: riskFactors,
		Recommendations: []string{
			"Regular monitoring",
			"Lifestyle modifications",
			"Preventive care protocols",
		},
	}
}

// context value helpers

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func numericValue(c map[string]interface{}, key string) (float64, bool) {
	if raw, ok := c[key]; ok {
		return toFloat(raw)
	}
	return 0, false
}

func stringValue(c map[string]interface{}, key string) string {
	if raw, ok := c[key]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}

func stringValueOr(c map[string]interface{}, key, fallback string) string {
	if s := stringValue(c, key); s != "" {
		return s
	}
	return fallback
}

func stringList(c map[string]interface{}, key string) []string {
	raw, ok := c[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
