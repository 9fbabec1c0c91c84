package intel

import "crimescape.app/dna/internal/model"

const (
	ActionDomainTakedown = "Initiate domain takedown for listed URLs"
	ActionTelecomTrace   = "Request telecom trace for reused numbers"
	ActionAlertBanks     = "Alert financial institutions and request blocklisting"
	ActionPreserve       = "Collect additional samples and preserve evidence chain"
)

// Actions suggests investigator steps in a fixed order, truncated to
// Policy.MaxActions.
func (s *Synthesizer) Actions(incidents []model.Incident) []string {
	actions := []string{}
	if len(uniqueNonEmpty(incidents, urlOf, 1)) > 0 {
		actions = append(actions, ActionDomainTakedown)
	}
	if len(uniqueNonEmpty(incidents, phoneOf, 1)) > 0 {
		actions = append(actions, ActionTelecomTrace)
	}
	actions = append(actions, ActionAlertBanks, ActionPreserve)

	if len(actions) > s.policy.MaxActions {
		actions = actions[:s.policy.MaxActions]
	}
	return actions
}
