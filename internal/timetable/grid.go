package timetable

import (
	"sort"
	"strings"

	"github.com/uniplan/uniplan-api/internal/models"
)

// Cell is one rendered grid position after overlay application and conflict
// annotation.
type Cell struct {
	Slots []models.Slot `json:"slots"`
	// StaffConflict is set when the leading slot's staff is double booked
	// at the same day and start time anywhere in the generated set.
	StaffConflict bool `json:"staff_conflict,omitempty"`
	// ElectivePair marks cells where multiple minor/elective subjects run
	// in parallel; these are legitimate and never flagged as conflicts.
	ElectivePair bool   `json:"elective_pair,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

// CourseTable is the rendered grid for one course: day x time label x
// semester. Semesters and time labels are sorted so renders are stable.
type CourseTable struct {
	CourseID  string                                `json:"course_id"`
	Semesters []string                              `json:"semesters"`
	TimeSlots []string                              `json:"time_slots"`
	Grid      map[string]map[string]map[string]Cell `json:"grid"`
}

const staffConflictWarning = "Staff Conflict!"

// BuildCourseTables renders a slot set into per-course grids. The overlay is
// applied on top of the generated slots cell by cell, first-year GE cells are
// synthesized, and every rendered cell is checked for staff conflicts against
// the full generated set. Courses appear in sorted order.
func BuildCourseTables(set models.SlotSet, cfg models.TimeConfig, overlay Overlay) []CourseTable {
	courses := groupByCourse(set)
	all := set.Flatten()

	courseIDs := make([]string, 0, len(courses))
	for id := range courses {
		courseIDs = append(courseIDs, id)
	}
	sort.Strings(courseIDs)

	tables := make([]CourseTable, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		tables = append(tables, buildCourseTable(courseID, courses[courseID], cfg, overlay, all))
	}
	return tables
}

type courseGroup struct {
	semesters map[string]bool
	slots     []models.Slot
}

func groupByCourse(set models.SlotSet) map[string]*courseGroup {
	courses := make(map[string]*courseGroup)
	for key, slots := range set {
		courseID, semester := models.SplitGroupKey(key)
		group, ok := courses[courseID]
		if !ok {
			group = &courseGroup{semesters: make(map[string]bool)}
			courses[courseID] = group
		}
		group.semesters[semester] = true
		group.slots = append(group.slots, slots...)
	}
	return courses
}

func buildCourseTable(courseID string, group *courseGroup, cfg models.TimeConfig, overlay Overlay, all []models.Slot) CourseTable {
	semesters := make([]string, 0, len(group.semesters))
	for semester := range group.semesters {
		semesters = append(semesters, semester)
	}
	sort.Strings(semesters)

	labels := timeLabels(group.slots, cfg)

	grid := make(map[string]map[string]map[string]Cell, len(Weekdays))
	for dayIdx, day := range Weekdays {
		grid[day] = make(map[string]map[string]Cell, len(labels))
		for _, label := range labels {
			grid[day][label] = make(map[string]Cell, len(semesters))
			for _, semester := range semesters {
				slots := cellSlots(group.slots, cfg, courseID, dayIdx, label, semester)
				if edited, ok := overlay[CellKey{Day: day, TimeSlot: label, Semester: semester}]; ok {
					slots = edited
				}
				grid[day][label][semester] = annotate(slots, all)
			}
		}
	}

	return CourseTable{
		CourseID:  courseID,
		Semesters: semesters,
		TimeSlots: labels,
		Grid:      grid,
	}
}

// timeLabels collects the distinct time columns for a course, sorted, with
// the GE window appended exactly once when configured.
func timeLabels(slots []models.Slot, cfg models.TimeConfig) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, slot := range slots {
		label := slot.TimeLabel()
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	if cfg.GEStart != "" && cfg.GEEnd != "" {
		geLabel := cfg.GEStart + "-" + cfg.GEEnd
		if !seen[geLabel] {
			labels = append(labels, geLabel)
		}
	}
	return labels
}

func cellSlots(slots []models.Slot, cfg models.TimeConfig, courseID string, dayIdx int, label, semester string) []models.Slot {
	start, end := splitTimeLabel(label)
	if cfg.GEStart != "" && start == cfg.GEStart && FirstYearGE(semester) {
		return []models.Slot{SyntheticGESlot(dayIdx, start, end, semester, courseID)}
	}

	var cell []models.Slot
	for _, slot := range slots {
		if slot.Day == dayIdx && slot.StartTime == start && slot.EndTime == end && slot.Semester == semester {
			cell = append(cell, slot)
		}
	}
	return cell
}

func annotate(slots []models.Slot, all []models.Slot) Cell {
	cell := Cell{Slots: slots}
	if len(slots) == 0 {
		return cell
	}
	if len(slots) > 1 && allElective(slots) {
		cell.ElectivePair = true
		return cell
	}
	if HasStaffConflict(slots[0], all) {
		cell.StaffConflict = true
		cell.Warning = staffConflictWarning
	}
	return cell
}

func allElective(slots []models.Slot) bool {
	for _, slot := range slots {
		if slot.SlotType != models.SlotTypeMinor && slot.SubjectCategory != "elective" {
			return false
		}
	}
	return true
}

func splitTimeLabel(label string) (start, end string) {
	start, end, _ = strings.Cut(label, "-")
	return start, end
}
