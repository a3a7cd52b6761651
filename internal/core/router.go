package core

import (
	"strings"

	"careagent/pkg"
)

// keywordSet pairs an agent with the phrases that select it. Sets are
// checked in declaration order and the first hit wins. Monitoring comes
// first: monitoring requests often co-occur with scheduling or
// medication words, and the clinically urgent reading must win the tie.
type keywordSet struct {
	agent    pkg.AgentType
	keywords []string
}

var routingTable = []keywordSet{
	{pkg.AgentMonitoring, []string{"monitor", "vitals", "heart rate", "blood pressure", "alert"}},
	{pkg.AgentScheduling, []string{"schedule", "appointment", "reschedule", "book"}},
	{pkg.AgentDrugDiscovery, []string{"compound", "drug", "treatment", "medication", "dosage"}},
}

// Route maps a free-text request to exactly one agent. Matching is
// case-insensitive substring containment over fixed keyword sets; any
// text that matches nothing, including the empty string, falls through
// to the general agent. Identical text always routes identically.
func Route(text string) pkg.AgentType {
	lower := strings.ToLower(text)
	for _, set := range routingTable {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.agent
			}
		}
	}
	return pkg.AgentGeneral
}
