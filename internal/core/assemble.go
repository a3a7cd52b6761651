package core

import "careagent/pkg"

// Assemble merges the routing decision, the locally computed alerts and
// the gateway completion into the response envelope returned to the
// caller. A non-nil err (gateway failure or local validation failure)
// flips the status to error and records the message, but every alert
// that was computed locally is kept: alerts never depend on the
// gateway.
func Assemble(agent pkg.AgentType, alerts []pkg.Alert, llmText string, err error) pkg.ResponseEnvelope {
	if alerts == nil {
		alerts = []pkg.Alert{}
	}
	env := pkg.ResponseEnvelope{
		Action:   string(agent),
		Alerts:   alerts,
		Response: llmText,
		Status:   pkg.StatusSuccess,
	}
	if err != nil {
		env.Status = pkg.StatusError
		env.ErrorMessage = err.Error()
	}
	return env
}
