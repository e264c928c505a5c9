package model

import "sort"

// Kind is the category of announcement. Each kind carries its own timing,
// repeat policy (owned by the eligibility engine) and playback priority.
type Kind string

const (
	KindCheckIn             Kind = "checkin"
	KindBoarding            Kind = "boarding"
	KindClose               Kind = "close"
	KindDiverted            Kind = "diverted"
	KindEarlier             Kind = "earlier"
	KindArrived             Kind = "arrived"
	KindDelay               Kind = "delay"
	KindOnTime              Kind = "on-time"
	KindCancelled           Kind = "cancelled"
	KindAIDelayReason       Kind = "ai-delay-reason"
	KindAIWeatherUpdate     Kind = "ai-weather-update"
	KindAIAssistance        Kind = "ai-passenger-assistance"
	KindSecurityAlert       Kind = "security-alert"
	KindEvacuation          Kind = "evacuation"
	KindSecurityLevelChange Kind = "security-level-change"
	KindLostFound           Kind = "lost-found"
	KindDangerousGoods      Kind = "dangerous-goods"
	KindSafety              Kind = "safety"
	KindGeneric             Kind = "generic"
)

// Playback priorities. Lower value plays first within a batch.
var kindPriorities = map[Kind]int{
	KindSecurityAlert:       0,
	KindEvacuation:          0,
	KindSecurityLevelChange: 1,
	KindDangerousGoods:      1,
	KindSafety:              1,
	KindCancelled:           2,
	KindDiverted:            2,
	KindDelay:               3,
	KindEarlier:             3,
	KindClose:               3,
	KindBoarding:            4,
	KindOnTime:              5,
	KindCheckIn:             6,
	KindArrived:             7,
	KindAIDelayReason:       3,
	KindAIWeatherUpdate:     3,
	KindAIAssistance:        8,
	KindLostFound:           4,
	KindGeneric:             9,
}

// Priority returns the playback priority for the kind. Unlisted kinds sort
// after everything else.
func (k Kind) Priority() int {
	if p, ok := kindPriorities[k]; ok {
		return p
	}
	return 10
}

// IsAIKind reports whether the kind's text comes from the AI provider path.
func (k Kind) IsAIKind() bool {
	switch k {
	case KindAIDelayReason, KindAIWeatherUpdate, KindAIAssistance:
		return true
	}
	return false
}

// Announcement is one resolved, ready-to-play item. It lives only inside the
// playback pipeline's queue and is consumed exactly once.
type Announcement struct {
	Kind        Kind
	Text        string
	Flight      *Flight // nil for emergency/safety items
	Priority    int
	IsAI        bool
	IsEmergency bool
}

// NewAnnouncement builds an announcement with the kind's table priority.
func NewAnnouncement(kind Kind, text string, flight *Flight) Announcement {
	return Announcement{
		Kind:     kind,
		Text:     text,
		Flight:   flight,
		Priority: kind.Priority(),
		IsAI:     kind.IsAIKind(),
	}
}

// SortByPriority orders a batch by ascending priority. The sort is stable so
// items of equal priority keep their arrival order; it is applied to the batch
// gathered within one cycle before enqueueing, never to items already queued.
func SortByPriority(batch []Announcement) {
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Priority < batch[j].Priority
	})
}
