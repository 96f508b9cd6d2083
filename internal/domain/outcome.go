package domain

// Outcome is how a stage settles a delivery with the broker
type Outcome int

const (
	// OutcomeAck removes the message
	OutcomeAck Outcome = iota
	// OutcomeRequeue redelivers the message later; used for transient failures
	OutcomeRequeue
	// OutcomeReject drops the message without redelivery; used for permanent data problems
	OutcomeReject
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeRequeue:
		return "requeue"
	case OutcomeReject:
		return "reject"
	default:
		return "unknown"
	}
}
