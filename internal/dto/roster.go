package dto

// StaffRequest describes payload for creating or updating a staff member.
type StaffRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=150"`
	Email          string `json:"email" validate:"required,email"`
	Specialization string `json:"specialization" validate:"omitempty,max=150"`
	SchoolID       string `json:"school_id" validate:"required"`
	DepartmentID   string `json:"department_id" validate:"required"`
}

// StudentRequest describes payload for registering a student.
type StudentRequest struct {
	StudentName string `json:"student_name" validate:"required,min=2,max=150"`
	RollNumber  string `json:"roll_number" validate:"required,max=50"`
	Email       string `json:"email" validate:"omitempty,email"`
	ClassID     string `json:"class_id" validate:"required"`
	SectionID   string `json:"section_id" validate:"required"`
}

// SubjectRequest describes payload for creating or updating a subject.
type SubjectRequest struct {
	SubjectName     string `json:"subject_name" validate:"required,min=2,max=150"`
	SubType         string `json:"sub_type" validate:"required,oneof=theory lab project"`
	SubjectCategory string `json:"subject_category" validate:"omitempty,max=50"`
	TheoryCredits   int    `json:"theory_credits" validate:"min=0,max=10"`
	LabCredits      int    `json:"lab_credits" validate:"min=0,max=10"`
	CourseID        string `json:"course_id" validate:"required"`
	Semester        string `json:"semester" validate:"required,min=1,max=2"`
	StaffID         string `json:"staff_id" validate:"omitempty"`
}
