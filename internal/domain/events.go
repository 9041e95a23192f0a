package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
	CanonicalEventClassOps           = "ops"
)

const (
	EventDisputeOpened          = "dispute.opened"
	EventDisputeDefended        = "dispute.defended"
	EventDisputeResolved        = "dispute.resolved"
	EventDisputeCancelled       = "dispute.cancelled"
	EventJuryAssigned           = "jury.assigned"
	EventVoteSubmitted          = "jury.vote_submitted"
	EventJuryDecided            = "jury.decided"
	EventJurorRegistered        = "juror.registered"
	EventJurorReputationUpdated = "juror.reputation_updated"
	EventJurorRewarded          = "juror.rewarded"
	EventJurorSlashed           = "juror.slashed"
)

// The tribunal consumes no canonical events; everything it reacts to arrives
// through its own API surface.
func IsCanonicalInputEvent(string) bool { return false }

func IsCanonicalEmittedEvent(eventType string) bool {
	return CanonicalEventClass(eventType) != ""
}

func CanonicalEventClass(eventType string) string {
	switch eventType {
	case EventDisputeOpened, EventDisputeDefended, EventDisputeResolved, EventDisputeCancelled,
		EventJuryAssigned, EventVoteSubmitted, EventJuryDecided:
		return CanonicalEventClassDomain
	case EventJurorRegistered, EventJurorReputationUpdated, EventJurorRewarded, EventJurorSlashed:
		return CanonicalEventClassAnalyticsOnly
	default:
		return ""
	}
}

func CanonicalPartitionKeyPath(eventType string) string {
	switch CanonicalEventClass(eventType) {
	case CanonicalEventClassDomain:
		return "data.dispute_id"
	case CanonicalEventClassAnalyticsOnly:
		return "data.juror_id"
	default:
		return ""
	}
}
