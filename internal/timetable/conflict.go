package timetable

import (
	"strings"

	"github.com/uniplan/uniplan-api/internal/models"
)

// ActiveTeaching reports whether a slot represents real staffed teaching.
// Free periods, lunch breaks, unnamed subjects and unstaffed slots never
// participate in conflict detection.
func ActiveTeaching(s models.Slot) bool {
	if s.SlotType == models.SlotTypeFree || s.SlotType == models.SlotTypeLunch {
		return false
	}
	return s.SubjectName != "" && s.StaffID != ""
}

// StaffIDs splits a slot's staff_id field into individual ids. Co-taught
// slots carry a comma-separated list; whitespace around ids is tolerated.
func StaffIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// HasStaffConflict reports whether any staff member on the current slot is
// simultaneously teaching another active slot: same day, same start time,
// intersecting staff-id sets. End times, semesters and courses are ignored,
// so cross-course double bookings are caught. Identical slot records never
// conflict with themselves.
func HasStaffConflict(current models.Slot, all []models.Slot) bool {
	if !ActiveTeaching(current) {
		return false
	}
	currentIDs := StaffIDs(current.StaffID)
	for _, other := range all {
		if other == current {
			continue
		}
		if other.Day != current.Day || other.StartTime != current.StartTime {
			continue
		}
		if !ActiveTeaching(other) {
			continue
		}
		if intersects(currentIDs, StaffIDs(other.StaffID)) {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
