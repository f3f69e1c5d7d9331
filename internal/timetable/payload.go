package timetable

import (
	"sort"
	"strings"

	"github.com/uniplan/uniplan-api/internal/models"
)

// BuildSavePayload merges a session's overlay back into the generated
// grouping and serialises it for persistence. Edited slots replace the
// matching generated slot, located by day, start and end time inside the
// edited semester's course group; when nothing matches the edit is appended.
// Days are stored under their weekday names.
func BuildSavePayload(set models.SlotSet, overlay Overlay) map[string][]models.SavedSlot {
	merged := make(map[string][]models.Slot, len(set))
	for key, slots := range set {
		copied := make([]models.Slot, len(slots))
		copy(copied, slots)
		merged[key] = copied
	}

	for _, key := range sortedCellKeys(overlay) {
		applyEdit(merged, key, overlay[key])
	}

	payload := make(map[string][]models.SavedSlot, len(merged))
	for key, slots := range merged {
		saved := make([]models.SavedSlot, 0, len(slots))
		for _, slot := range slots {
			saved = append(saved, toSavedSlot(slot))
		}
		payload[key] = saved
	}
	return payload
}

// applyEdit rewrites one edited cell inside the merged grouping. The target
// group is the first (sorted) key belonging to the edited semester; synthetic
// GE cells and manual additions land there as appends.
func applyEdit(merged map[string][]models.Slot, cell CellKey, edited []models.Slot) {
	if len(edited) == 0 {
		return
	}
	groupKey := semesterGroupKey(merged, cell.Semester)
	if groupKey == "" {
		return
	}

	dayIdx := DayIndex(cell.Day)
	start, end := splitTimeLabel(cell.TimeSlot)
	slot := edited[0]
	slot.Day = dayIdx
	slot.StartTime = start
	slot.EndTime = end
	slot.Semester = cell.Semester
	if slot.CourseID == "" {
		slot.CourseID, _ = models.SplitGroupKey(groupKey)
	}

	group := merged[groupKey]
	for i, existing := range group {
		if existing.Day == dayIdx && existing.StartTime == start && existing.EndTime == end {
			group[i] = slot
			return
		}
	}
	merged[groupKey] = append(group, slot)
}

func semesterGroupKey(merged map[string][]models.Slot, semester string) string {
	keys := make([]string, 0, len(merged))
	for key := range merged {
		if strings.HasSuffix(key, "-"+semester) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}

func sortedCellKeys(overlay Overlay) []CellKey {
	keys := make([]CellKey, 0, len(overlay))
	for key := range overlay {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		return a.Semester < b.Semester
	})
	return keys
}

func toSavedSlot(slot models.Slot) models.SavedSlot {
	return models.SavedSlot{
		Day:             DayName(slot.Day),
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		Semester:        slot.Semester,
		CourseID:        slot.CourseID,
		SubjectID:       slot.SubjectID,
		SubjectName:     slot.SubjectName,
		StaffID:         slot.StaffID,
		StaffName:       slot.StaffName,
		SlotType:        slot.SlotType,
		SubjectCategory: slot.SubjectCategory,
	}
}

// PayloadCourse resolves the course a save payload belongs to: the course id
// of the first (sorted) group key. Save requests carry a single course.
func PayloadCourse(set models.SlotSet) string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	courseID, _ := models.SplitGroupKey(keys[0])
	return courseID
}
