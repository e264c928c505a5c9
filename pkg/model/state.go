package model

// CanonicalState is the closed set of normalized flight statuses consumed by
// all decision logic. Raw feed strings map into this set via status.Normalize.
type CanonicalState string

const (
	StateProcessing CanonicalState = "Processing"
	StateCheckIn    CanonicalState = "CheckInOpen"
	StateBoarding   CanonicalState = "Boarding"
	StateClose      CanonicalState = "Close"
	StateDelayed    CanonicalState = "Delayed"
	StateArrived    CanonicalState = "Arrived"
	StateLanded     CanonicalState = "Landed"
	StateDiverted   CanonicalState = "Diverted"
	StateCancelled  CanonicalState = "Cancelled"
	StateEarlier    CanonicalState = "Earlier"
	StateOnTime     CanonicalState = "OnTime"
	StateUnknown    CanonicalState = "Unknown"
)
