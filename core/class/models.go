package class

import (
	"fmt"
	"strings"
	"time"

	"github.com/Daniel-Nas/teaching-assistant/core"
	"github.com/Daniel-Nas/teaching-assistant/core/rubric"
)

// Kind distinguishes who assigned an evaluation.
type Kind string

const (
	KindTeacher Kind = "teacher"
	KindSelf    Kind = "self"
)

func (k Kind) Valid() bool { return k == KindTeacher || k == KindSelf }

// Enrollment binds one student to a class and carries the two independent
// evaluation maps, keyed by rubric goal. An enrollment is owned exclusively
// by its Class; at most one exists per student CPF within a class.
type Enrollment struct {
	StudentID    int                          `json:"student_id"`
	StudentCPF   string                       `json:"student_cpf"`
	TeacherEvals map[rubric.Goal]rubric.Grade `json:"teacher_evaluations"`
	SelfEvals    map[rubric.Goal]rubric.Grade `json:"self_evaluations"`
	EnrolledAt   time.Time                    `json:"enrolled_at"` // UTC
}

func newEnrollment(studentID int, cpf string) Enrollment {
	return Enrollment{
		StudentID:    studentID,
		StudentCPF:   cpf,
		TeacherEvals: make(map[rubric.Goal]rubric.Grade),
		SelfEvals:    make(map[rubric.Goal]rubric.Grade),
		EnrolledAt:   time.Now().UTC(),
	}
}

// evals returns the evaluation map for `kind`.
func (e Enrollment) evals(kind Kind) map[rubric.Goal]rubric.Grade {
	if kind == KindSelf {
		return e.SelfEvals
	}
	return e.TeacherEvals
}

// Class is a topic taught on a given semester/year.
// The ID is an immutable surface key assigned at creation; the
// (topic, year, semester) tuple is additionally kept unique so two classes
// can never collide on their derived identity, not even after edits.
type Class struct {
	ID          string       `json:"id"`
	Topic       string       `json:"topic"`
	Semester    int          `json:"semester"`
	Year        int          `json:"year"`
	Enrollments []Enrollment `json:"enrollments"` // insertion order
	CreatedAt   time.Time    `json:"created_at"`  // UTC
	UpdatedAt   time.Time    `json:"updated_at"`  // UTC
}

// Identity is the derived (topic, year, semester) identity, normalized for
// case-insensitive comparison.
func (c Class) Identity() string {
	return fmt.Sprintf("%s/%d.%d", strings.ToLower(c.Topic), c.Year, c.Semester)
}

// findEnrollment returns the index of the enrollment holding `cpf`, or -1.
func (c Class) findEnrollment(cpf string) int {
	for i, enr := range c.Enrollments {
		if enr.StudentCPF == cpf {
			return i
		}
	}
	return -1
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Topic    string `json:"topic" validate:"required"`
	Semester int    `json:"semester" validate:"required,min=1,max=2"`
	Year     int    `json:"year" validate:"required,min=1900"`
}

func (nc *NewClass) Validate(svc *Service) error {
	nc.Topic = core.CleanString(nc.Topic)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	cls := Class{Topic: nc.Topic, Semester: nc.Semester, Year: nc.Year}
	return svc.CheckIdentityUniqueness(cls)
}

// UpdateClass defines what information may be provided to modify an existing
// Class. Zero fields keep their current value. Since the derived identity is
// built from these fields, uniqueness is re-checked on every update.
type UpdateClass struct {
	Topic    string `json:"topic"`
	Semester int    `json:"semester" validate:"omitempty,min=1,max=2"`
	Year     int    `json:"year" validate:"omitempty,min=1900"`
}

func (uc *UpdateClass) Validate(origCls Class, svc *Service) error {
	topic := core.CleanString(uc.Topic)
	if topic != "" {
		uc.Topic = topic
	} else {
		uc.Topic = origCls.Topic
	}
	if uc.Semester == 0 {
		uc.Semester = origCls.Semester
	}
	if uc.Year == 0 {
		uc.Year = origCls.Year
	}

	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	cls := Class{Topic: uc.Topic, Semester: uc.Semester, Year: uc.Year}
	return svc.CheckIdentityUniqueness(cls, origCls)
}

// Evaluation is a single (goal, grade) cell recorded against an enrollment.
// An empty grade removes any existing record for the goal.
type Evaluation struct {
	Goal  rubric.Goal  `json:"goal" validate:"required,rubricgoal"`
	Grade rubric.Grade `json:"grade" validate:"omitempty,rubricgrade"`
	Kind  Kind         `json:"kind" validate:"required,evalkind"`
}

func (ev *Evaluation) Validate() error {
	ev.Goal = rubric.Goal(core.CleanString(string(ev.Goal)))
	ev.Grade = rubric.Grade(strings.ToUpper(core.CleanString(string(ev.Grade))))
	return core.Validate.Struct(ev)
}

// SelfEvaluationRequest schedules a self-evaluation reminder relative to now.
type SelfEvaluationRequest struct {
	Days    int `json:"days" validate:"min=0"`
	Hours   int `json:"hours" validate:"min=0"`
	Minutes int `json:"minutes" validate:"min=0"`
}

func (sr *SelfEvaluationRequest) Validate() error {
	return core.Validate.Struct(sr)
}

// Delay converts the request into a single duration.
func (sr SelfEvaluationRequest) Delay() time.Duration {
	return time.Duration(sr.Days)*24*time.Hour +
		time.Duration(sr.Hours)*time.Hour +
		time.Duration(sr.Minutes)*time.Minute
}

type (
	// GoalComparison is the per-goal teacher/self comparison for one student.
	GoalComparison struct {
		Goal         rubric.Goal  `json:"goal"`
		TeacherGrade rubric.Grade `json:"teacher_grade"`
		SelfGrade    rubric.Grade `json:"self_grade"`
		Overstated   bool         `json:"overstated"`
	}

	// StudentReport aggregates one enrollment's comparison view.
	StudentReport struct {
		StudentID   int              `json:"student_id"`
		StudentCPF  string           `json:"student_cpf"`
		StudentName string           `json:"student_name"`
		Goals       []GoalComparison `json:"goals"`
		rubric.Discrepancy
	}

	// DiscrepancyReport is the comparison view for a whole class,
	// in enrollment order.
	DiscrepancyReport struct {
		ClassID  string          `json:"class_id"`
		Students []StudentReport `json:"students"`
	}
)
