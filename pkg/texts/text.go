package texts

import (
	"fmt"
	"strings"
	"time"

	"razglasgo/pkg/model"
)

var digitWords = map[rune]string{
	'0': "zero", '1': "one", '2': "two", '3': "three", '4': "four",
	'5': "five", '6': "six", '7': "seven", '8': "eight", '9': "nine",
}

// SpellDigits renders a flight number digit by digit for the PA voice,
// "150" becomes "one five zero". Non-digit runes pass through unchanged.
func SpellDigits(s string) string {
	var parts []string
	for _, r := range s {
		if w, digit := digitWords[r]; digit {
			parts = append(parts, w)
		} else {
			parts = append(parts, string(r))
		}
	}
	return strings.Join(parts, " ")
}

// Sentiment scores how unpleasant the situation is for passengers, in
// [-1, 1]. Large delays, evening hours and peak traffic push it down.
func Sentiment(delayMinutes int, now time.Time, peakHours []int) float64 {
	s := 0.0
	if delayMinutes > 60 {
		s -= 0.3
	}
	if delayMinutes > 120 {
		s -= 0.5
	}
	switch timeOfDay(now) {
	case "morning":
		s += 0.1
	case "evening":
		s -= 0.1
	}
	if isPeakHour(now, peakHours) {
		s -= 0.2
	}
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return s
}

func timeOfDay(now time.Time) string {
	switch h := now.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func isPeakHour(now time.Time, peakHours []int) bool {
	h := now.Hour()
	for _, p := range peakHours {
		if h == p {
			return true
		}
	}
	return false
}

// Substitute fills template placeholders from flight data. Unknown
// placeholders are left in place so misconfigured templates are audible in
// the play log rather than silently truncated.
func Substitute(tmpl string, f *model.Flight) string {
	newTime := f.EstimatedTime
	if newTime == "" {
		newTime = f.ScheduledTime
	}
	repl := strings.NewReplacer(
		"{airline}", f.AirlineName,
		"{flightNumber}", SpellDigits(f.Ident),
		"{destination}", f.CityName,
		"{origin}", f.CityName,
		"{originCODE}", f.CityCode,
		"{gate}", f.Gate,
		"{counters}", f.CheckInCounters,
		"{delayMinutes}", fmt.Sprintf("%d", f.DelayMinutes),
		"{newTime}", newTime,
		"{scheduledTime}", f.ScheduledTime,
	)
	return repl.Replace(tmpl)
}

// DefaultText is the last-resort built-in phrasing per announcement kind.
func DefaultText(kind model.Kind, f *model.Flight) string {
	airline := f.AirlineName
	if airline == "" {
		airline = f.AirlineIATA
	}
	flight := strings.TrimSpace(airline + " flight " + SpellDigits(f.Ident))

	switch kind {
	case model.KindCheckIn:
		txt := fmt.Sprintf("Attention please. Check-in for %s to %s is now open", flight, f.CityName)
		if f.CheckInCounters != "" {
			txt += " at counters " + f.CheckInCounters
		}
		return txt + "."
	case model.KindBoarding:
		txt := fmt.Sprintf("Attention please. %s to %s is now boarding", flight, f.CityName)
		if f.Gate != "" {
			txt += " at gate " + f.Gate
		}
		return txt + "."
	case model.KindClose:
		txt := fmt.Sprintf("Final call. This is the final call for %s to %s", flight, f.CityName)
		if f.Gate != "" {
			txt += ". Please proceed immediately to gate " + f.Gate
		}
		return txt + "."
	case model.KindDelay, model.KindAIDelayReason:
		if f.DelayMinutes > 0 {
			return fmt.Sprintf("Attention please. %s to %s is delayed by approximately %d minutes. We apologise for the inconvenience.", flight, f.CityName, f.DelayMinutes)
		}
		return fmt.Sprintf("Attention please. %s to %s is delayed. We apologise for the inconvenience.", flight, f.CityName)
	case model.KindEarlier:
		txt := fmt.Sprintf("Attention please. %s to %s will depart earlier than scheduled", flight, f.CityName)
		if f.EstimatedTime != "" {
			txt += ", at " + f.EstimatedTime
		}
		return txt + ". Please proceed to your gate."
	case model.KindOnTime:
		return fmt.Sprintf("Attention please. %s from %s is arriving on schedule.", flight, f.CityName)
	case model.KindArrived:
		return fmt.Sprintf("Attention please. %s from %s has arrived.", flight, f.CityName)
	case model.KindDiverted:
		return fmt.Sprintf("Attention please. %s from %s has been diverted. Please contact the airline information desk for details.", flight, f.CityName)
	case model.KindCancelled:
		return fmt.Sprintf("Attention please. We regret to announce that %s to %s has been cancelled. Please contact your airline for rebooking.", flight, f.CityName)
	case model.KindSecurityAlert:
		return "Attention please. This is a security announcement. Please keep your belongings with you at all times and report any unattended items to airport staff."
	case model.KindEvacuation:
		return "Attention please. This is an emergency announcement. Please proceed calmly to the nearest exit and follow the instructions of airport staff."
	case model.KindSecurityLevelChange:
		return "Attention please. The airport security level has changed. Additional screening may be in effect. Please allow extra time at security checkpoints."
	case model.KindLostFound:
		return "Attention please. A found item has been handed in. Please contact the lost and found office in the arrivals hall."
	case model.KindDangerousGoods:
		return "Attention please. Dangerous goods are not permitted in checked or carry-on baggage. Please consult airport staff if you are unsure about an item."
	case model.KindSafety:
		return "Attention please. Do not leave baggage unattended. Unattended items may be removed and destroyed by airport security."
	default:
		return fmt.Sprintf("Attention please. This is an announcement regarding %s to %s. Please check the information displays.", flight, f.CityName)
	}
}
