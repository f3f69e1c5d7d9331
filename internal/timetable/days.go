package timetable

// Weekdays is the fixed five-day teaching week. Slot day indices 0..4 map
// onto it; Saturday/Sunday slots never render.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// DayName converts a slot day index to its weekday name. Out-of-range indices
// return the empty string.
func DayName(index int) string {
	if index < 0 || index >= len(Weekdays) {
		return ""
	}
	return Weekdays[index]
}

// DayIndex converts a weekday name back to a slot day index, -1 if unknown.
func DayIndex(name string) int {
	for i, day := range Weekdays {
		if day == name {
			return i
		}
	}
	return -1
}
