package core

import (
	"fmt"
	"time"

	"vks.la/patrol/utils"
)

// earlyArrivalBuffer pushes a check-in arriving slightly before the shift
// boundary into the upcoming shift.
const earlyArrivalBuffer = 30 * time.Minute

// ShiftInfo is the computed active shift. Number is 0 when a non-standard
// shift base makes numbering undefined; the timing window is always set.
type ShiftInfo struct {
	Number int    `json:"shiftNumber"`
	Timing string `json:"shiftTiming"`
}

// CurrentShift derives the active shift from the wall clock and the site's
// merged configuration.
//
// Sites without a custom shift type follow the standard windows:
// 06:00-14:00 is shift 1, 14:00-22:00 is shift 2, anything else shift 3.
//
// Sites with shiftType "8h" and an explicit shift start rotate three 8-hour
// windows from that base. A shift number is only assigned when the custom
// base is the standard 06:00 anchor; for other bases the window is computed
// and numbering is left to the caller.
func CurrentShift(now time.Time, cfg EffectiveConfig) ShiftInfo {
	if cfg.ShiftType == "8h" && cfg.ShiftStart != "" {
		return customShift(now, cfg.ShiftStart)
	}
	return standardShift(now)
}

func standardShift(now time.Time) ShiftInfo {
	hour := now.Hour()
	switch {
	case hour >= 6 && hour < 14:
		return ShiftInfo{Number: 1, Timing: "06:00-14:00"}
	case hour >= 14 && hour < 22:
		return ShiftInfo{Number: 2, Timing: "14:00-22:00"}
	default:
		return ShiftInfo{Number: 3, Timing: "22:00-06:00"}
	}
}

func customShift(now time.Time, shiftStart string) ShiftInfo {
	baseHour, baseMinute, err := utils.ParseClock(shiftStart)
	if err != nil {
		return standardShift(now)
	}

	buffered := now.Add(earlyArrivalBuffer)
	nowMinutes := buffered.Hour()*60 + buffered.Minute()
	baseMinutes := baseHour*60 + baseMinute

	elapsed := nowMinutes - baseMinutes
	if elapsed < 0 {
		elapsed += 24 * 60
	}
	slot := (elapsed / (8 * 60)) % 3

	startMinutes := (baseMinutes + slot*8*60) % (24 * 60)
	endMinutes := (startMinutes + 8*60) % (24 * 60)

	info := ShiftInfo{
		Timing: fmt.Sprintf("%s-%s", clockString(startMinutes), clockString(endMinutes)),
	}
	if baseHour == 6 && baseMinute == 0 {
		info.Number = slot + 1
	}
	return info
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
