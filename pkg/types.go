package pkg

import "time"

// AgentType identifies which handling path a request takes. The set is
// closed: every request maps to exactly one of these four agents, with
// AgentGeneral acting as the fallback.
type AgentType string

const (
	AgentScheduling    AgentType = "appointment_scheduling"
	AgentDrugDiscovery AgentType = "drug_discovery"
	AgentMonitoring    AgentType = "patient_monitoring"
	AgentGeneral       AgentType = "general_query"
)

// AlertLevel is the severity of an alert. Levels are ordered
// Low < Medium < High < Critical.
type AlertLevel string

const (
	LevelLow      AlertLevel = "low"
	LevelMedium   AlertLevel = "medium"
	LevelHigh     AlertLevel = "high"
	LevelCritical AlertLevel = "critical"
)

// Rank returns the position of the level in the severity ordering so
// callers can compare severities without string comparisons.
func (l AlertLevel) Rank() int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	}
	return -1
}

// AlertType names the vital sign that triggered an alert.
type AlertType string

const (
	AlertBloodPressure AlertType = "blood_pressure"
	AlertHeartRate     AlertType = "heart_rate"
	AlertTemperature   AlertType = "temperature"
	AlertGlucose       AlertType = "glucose"
)

// Observation is a single reading of a patient's vital signs. Every
// field is independently optional; a nil pointer means the vital was
// not measured, which is different from a reading of zero. Observations
// are immutable once constructed.
type Observation struct {
	HeartRate    *float64 `json:"heart_rate,omitempty"`
	SystolicBP   *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP  *float64 `json:"diastolic_bp,omitempty"`
	TemperatureF *float64 `json:"temperature_f,omitempty"`
	GlucoseMgDl  *float64 `json:"glucose_mg_dl,omitempty"`
}

// IsEmpty reports whether no vital sign is present at all.
func (o Observation) IsEmpty() bool {
	return o.HeartRate == nil && o.SystolicBP == nil && o.DiastolicBP == nil &&
		o.TemperatureF == nil && o.GlucoseMgDl == nil
}

// Alert is a structured warning about an out-of-range vital sign. It is
// created by the threshold evaluator and never mutated afterwards.
type Alert struct {
	PatientID         string     `json:"patient_id"`
	AlertType         AlertType  `json:"alert_type"`
	Level             AlertLevel `json:"level"`
	Message           string     `json:"message"`
	RecommendedAction string     `json:"recommended_action"`
	Timestamp         time.Time  `json:"timestamp"`
}

// Status values carried by a ResponseEnvelope.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ResponseEnvelope is the single externally visible artifact of a
// processed request. Alerts are computed locally and remain present
// even when the LLM gateway call failed.
type ResponseEnvelope struct {
	Action       string  `json:"action"`
	Alerts       []Alert `json:"alerts"`
	Response     string  `json:"response,omitempty"`
	Status       Status  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`

	// Structured payloads set by individual agents when a request has a
	// recognized sub-intent. At most one of these is non-nil.
	Appointment    *Appointment             `json:"appointment,omitempty"`
	Candidates     []DrugCandidate          `json:"candidates,omitempty"`
	Recommendation *TreatmentRecommendation `json:"recommendation,omitempty"`
	Assessment     *RiskAssessment          `json:"risk_assessment,omitempty"`
}

// AgentRequest is the inbound payload: a free-text request plus an
// optional structured context (string keys to numeric or string values,
// e.g. vital signs and a patient_id).
type AgentRequest struct {
	Text    string                 `json:"text"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Patient holds the administrative and clinical profile kept for a
// patient. History-style fields are stored as plain string lists.
type Patient struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	MedicalHistory []string  `json:"medical_history"`
	Medications    []string  `json:"current_medications"`
	RiskFactors    []string  `json:"risk_factors"`
	CreatedAt      time.Time `json:"created_at"`
}

// AppointmentStatus tracks the lifecycle of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a booked patient visit.
type Appointment struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patient_id"`
	DoctorID    string            `json:"doctor_id"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Type        string            `json:"type"`
	Status      AppointmentStatus `json:"status"`
	Notes       *string           `json:"notes,omitempty"`
}

// DrugCandidate is the outcome of a simulated compound screen for a
// target condition.
type DrugCandidate struct {
	Name             string  `json:"name"`
	Mechanism        string  `json:"mechanism"`
	TargetDisease    string  `json:"target_disease"`
	SafetyScore      float64 `json:"safety_score"`
	EfficacyScore    float64 `json:"efficacy_score"`
	DevelopmentStage string  `json:"development_stage"`
}

// RiskAssessment is the output of the monitoring agent's risk scoring.
type RiskAssessment struct {
	RiskScore           float64  `json:"risk_score"`
	RiskLevel           string   `json:"risk_level"`
	ContributingFactors []string `json:"contributing_factors"`
	Recommendations     []string `json:"recommendations"`
}

// TreatmentRecommendation is a structured treatment plan produced by
// the drug discovery agent.
type TreatmentRecommendation struct {
	PrimaryTreatment       string   `json:"primary_treatment"`
	AlternativeOptions     []string `json:"alternative_options"`
	MonitoringRequirements []string `json:"monitoring_requirements"`
	Contraindications      []string `json:"contraindications"`
	ExpectedOutcomes       string   `json:"expected_outcomes"`
}
