// Package status maps raw, inconsistently-cased feed status strings into the
// closed set of canonical flight states.
package status

import (
	"strings"

	"razglasgo/pkg/model"
)

// synonyms maps a folded raw status to its canonical state. Folding lowercases
// and strips spaces, hyphens and underscores, so "Check-In", "CHECK IN" and
// "checkin" all land on the same key. The localized cancellation variants are
// kept verbatim from the production feed; dropping one silently drops real
// cancellations.
var synonyms = map[string]model.CanonicalState{
	"processing": model.StateProcessing,

	"checkin":     model.StateCheckIn,
	"checkinopen": model.StateCheckIn,

	"boarding":      model.StateBoarding,
	"gateopen":      model.StateBoarding,
	"lastcall":      model.StateClose,
	"close":         model.StateClose,
	"closed":        model.StateClose,
	"gateclosed":    model.StateClose,
	"finalboarding": model.StateClose,

	"delayed": model.StateDelayed,
	"delay":   model.StateDelayed,
	"late":    model.StateDelayed,

	"arrived": model.StateArrived,
	"landed":  model.StateLanded,

	"diverted":   model.StateDiverted,
	"redirected": model.StateDiverted,

	"cancelled": model.StateCancelled,
	"canceled":  model.StateCancelled,
	"otkazan":   model.StateCancelled,
	"otkazano":  model.StateCancelled,
	"otkazani":  model.StateCancelled,

	"earlier": model.StateEarlier,
	"early":   model.StateEarlier,

	"ontime":     model.StateOnTime,
	"onschedule": model.StateOnTime,
	"scheduled":  model.StateOnTime,
}

// Normalize maps raw feed text to a canonical state. It is pure and total:
// every input yields exactly one result, with ok=false for unrecognized text.
// Callers treat ok=false as "skip this flight for this cycle, log a warning".
func Normalize(raw string) (model.CanonicalState, bool) {
	folded := fold(raw)
	if folded == "" {
		return model.StateUnknown, false
	}
	if s, ok := synonyms[folded]; ok {
		return s, true
	}
	return model.StateUnknown, false
}

func fold(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
