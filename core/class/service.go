package class

import (
	"errors"
	"net/mail"
	"time"

	"github.com/Daniel-Nas/teaching-assistant/core"
	"github.com/Daniel-Nas/teaching-assistant/core/rubric"
	"github.com/Daniel-Nas/teaching-assistant/core/student"
)

var (
	// errors
	ErrNotFound            = errors.New("class not found")
	ErrClassExists         = errors.New("a class with this topic, year and semester already exists")
	ErrEnrollmentNotFound  = errors.New("student is not enrolled in this class")
	ErrDuplicateEnrollment = errors.New("student is already enrolled in this class")
)

// nowFunc is swapped out in tests.
var nowFunc = time.Now

type (
	Repository interface {
		CheckIdentityUniqueness(identity string, excludedClasses ...Class) error
		CreateClass(cls Class) (Class, error)
		QueryAllClasses() ([]Class, error)
		GetClassByID(id string) (Class, error)
		UpdateClass(cls Class) (Class, error)
		DeleteClassesByID(ids ...string) error
	}

	// StudentDirectory resolves CPF numbers to registered students.
	// The student repository satisfies it.
	StudentDirectory interface {
		GetStudentByCPF(cpf string) (student.Student, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
		mailSvc  core.EmailService
	}
)

func NewService(repo Repository, students StudentDirectory, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, students: students, mailSvc: mailSvc}
}

// CheckIdentityUniqueness fails with ErrClassExists when another class
// already holds the same derived (topic, year, semester) identity.
func (svc *Service) CheckIdentityUniqueness(cls Class, exclClasses ...Class) error {
	return svc.repo.CheckIdentityUniqueness(cls.Identity(), exclClasses...)
}

func (svc *Service) Create(nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Topic:       nc.Topic,
		Semester:    nc.Semester,
		Year:        nc.Year,
		Enrollments: make([]Enrollment, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateClass(cls)
}

func (svc *Service) QueryAll() ([]Class, error) {
	return svc.repo.QueryAllClasses()
}

func (svc *Service) GetByID(id string) (Class, error) {
	return svc.repo.GetClassByID(id)
}

func (svc *Service) Update(orig Class, uc UpdateClass) (Class, error) {
	cls := orig
	cls.Topic = uc.Topic
	cls.Semester = uc.Semester
	cls.Year = uc.Year
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(cls)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteClassesByID(ids...)
}

// Enroll adds the student holding `cpf` to the class. A student can hold at
// most one enrollment per class; enrollments in other classes are independent.
func (svc *Service) Enroll(classID, cpf string) (Class, error) {
	cls, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}

	cpf = core.CleanDigits(cpf)
	std, err := svc.students.GetStudentByCPF(cpf)
	if err != nil {
		return Class{}, err
	}
	if cls.findEnrollment(cpf) >= 0 {
		return Class{}, ErrDuplicateEnrollment
	}

	cls.Enrollments = append(cls.Enrollments, newEnrollment(std.ID, std.CPF))
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(cls)
}

// Unenroll removes the matching enrollment and reports whether one was found.
// A missing enrollment is not an error; repeating the call is a no-op.
func (svc *Service) Unenroll(classID, cpf string) (bool, error) {
	cls, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return false, err
	}

	i := cls.findEnrollment(core.CleanDigits(cpf))
	if i < 0 {
		return false, nil
	}

	cls.Enrollments = append(cls.Enrollments[:i], cls.Enrollments[i+1:]...)
	cls.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateClass(cls); err != nil {
		return false, err
	}
	return true, nil
}

// RekeyEnrollments moves every enrollment held under oldCPF to newCPF.
// Enrollments key on the CPF number, so a corrected CPF must be propagated
// here or the student's evaluation history goes orphaned.
func (svc *Service) RekeyEnrollments(oldCPF, newCPF string) error {
	classes, err := svc.repo.QueryAllClasses()
	if err != nil {
		return err
	}
	for _, cls := range classes {
		i := cls.findEnrollment(oldCPF)
		if i < 0 {
			continue
		}
		cls.Enrollments[i].StudentCPF = newCPF
		cls.UpdatedAt = time.Now().UTC()
		if _, err := svc.repo.UpdateClass(cls); err != nil {
			return err
		}
	}
	return nil
}

// RecordEvaluation upserts a single (goal, grade) record on the enrollment
// holding `cpf`. An empty grade removes any existing record for the goal and
// is idempotent. The evaluation maps are left untouched on invalid input.
func (svc *Service) RecordEvaluation(classID, cpf string, ev Evaluation) (Class, error) {
	if err := ev.Validate(); err != nil {
		return Class{}, err
	}

	cls, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}

	i := cls.findEnrollment(core.CleanDigits(cpf))
	if i < 0 {
		return Class{}, ErrEnrollmentNotFound
	}

	evals := cls.Enrollments[i].evals(ev.Kind)
	if ev.Grade == rubric.GradeNone {
		delete(evals, ev.Goal)
	} else {
		evals[ev.Goal] = ev.Grade
	}
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(cls)
}

// ImportEvaluations applies bulk (goal, grade) cells loaded from an external
// source through the same path RecordEvaluation takes, one cell at a time.
// The first invalid cell aborts the import; earlier cells stay applied.
func (svc *Service) ImportEvaluations(classID, cpf string, cells []Evaluation) (Class, error) {
	var cls Class
	var err error
	for _, cell := range cells {
		if cls, err = svc.RecordEvaluation(classID, cpf, cell); err != nil {
			return Class{}, err
		}
	}
	if cls.ID == "" {
		return svc.repo.GetClassByID(classID)
	}
	return cls, nil
}

// Discrepancies derives the teacher-vs-self comparison view for the class.
// Stateless; nothing derived is persisted.
func (svc *Service) Discrepancies(classID string) (DiscrepancyReport, error) {
	cls, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return DiscrepancyReport{}, err
	}

	report := DiscrepancyReport{
		ClassID:  cls.ID,
		Students: make([]StudentReport, 0, len(cls.Enrollments)),
	}
	for _, enr := range cls.Enrollments {
		sr := StudentReport{
			StudentID:   enr.StudentID,
			StudentCPF:  enr.StudentCPF,
			Goals:       make([]GoalComparison, 0, len(rubric.Goals)),
			Discrepancy: rubric.StudentDiscrepancy(rubric.Goals, enr.TeacherEvals, enr.SelfEvals),
		}
		if std, err := svc.students.GetStudentByCPF(enr.StudentCPF); err == nil {
			sr.StudentName = std.Name
		}
		for _, goal := range rubric.Goals {
			t, s := enr.TeacherEvals[goal], enr.SelfEvals[goal]
			sr.Goals = append(sr.Goals, GoalComparison{
				Goal:         goal,
				TeacherGrade: t,
				SelfGrade:    s,
				Overstated:   rubric.Overstated(t, s),
			})
		}
		report.Students = append(report.Students, sr)
	}
	return report, nil
}

// RequestSelfEvaluation computes the target time for a self-evaluation
// reminder and emails the class's enrolled students a request notice.
// Only the target timestamp is kept; there is no job store and no delivery
// at that time; the returned value is for user-facing confirmation.
func (svc *Service) RequestSelfEvaluation(classID string, req SelfEvaluationRequest) (time.Time, error) {
	if err := req.Validate(); err != nil {
		return time.Time{}, err
	}

	cls, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return time.Time{}, err
	}
	scheduledFor := nowFunc().UTC().Add(req.Delay())

	msgs := make([]*core.EmailMessage, 0, len(cls.Enrollments))
	for _, enr := range cls.Enrollments {
		std, err := svc.students.GetStudentByCPF(enr.StudentCPF)
		if err != nil || std.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: std.Name, Address: std.Email}},
			Subject:      "Self-evaluation requested: " + cls.Topic,
			TemplateName: "self_evaluation_request",
			TemplateData: struct {
				Name         string
				Topic        string
				ScheduledFor time.Time
			}{std.Name, cls.Topic, scheduledFor},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
	return scheduledFor, nil
}
