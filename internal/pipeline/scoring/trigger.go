package scoring

// Trigger records what event caused a recalculation. It is stored verbatim
// in the score history for audit and has no effect on the algorithm itself.
type Trigger string

const (
	TriggerInviteSent          Trigger = "invite_sent"
	TriggerCallScoreUpdated    Trigger = "call_score_updated"
	TriggerStatusChanged       Trigger = "status_changed"
	TriggerCommunicationLogged Trigger = "communication_logged"
	TriggerHighLevelSync       Trigger = "highlevel_sync"
	TriggerEmailOpened         Trigger = "email_opened"
	TriggerProposalViewed      Trigger = "proposal_viewed"
	TriggerAccountCreated      Trigger = "account_created"
	TriggerTrackingEvent       Trigger = "tracking_event"
	TriggerDailyCron           Trigger = "daily_cron"
	TriggerManualRefresh       Trigger = "manual_refresh"
	TriggerDealArchived        Trigger = "deal_archived"
	TriggerDealRevived         Trigger = "deal_revived"
	TriggerUnknown             Trigger = "unknown"
)

var knownTriggers = map[Trigger]struct{}{
	TriggerInviteSent:          {},
	TriggerCallScoreUpdated:    {},
	TriggerStatusChanged:       {},
	TriggerCommunicationLogged: {},
	TriggerHighLevelSync:       {},
	TriggerEmailOpened:         {},
	TriggerProposalViewed:      {},
	TriggerAccountCreated:      {},
	TriggerTrackingEvent:       {},
	TriggerDailyCron:           {},
	TriggerManualRefresh:       {},
	TriggerDealArchived:        {},
	TriggerDealRevived:         {},
	TriggerUnknown:             {},
}

// Normalize maps empty or unrecognized trigger values to TriggerUnknown.
func (t Trigger) Normalize() Trigger {
	if _, ok := knownTriggers[t]; ok {
		return t
	}
	return TriggerUnknown
}

func (t Trigger) String() string {
	return string(t)
}
