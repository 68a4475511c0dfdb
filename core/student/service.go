package student

import (
	"errors"
	"time"

	"github.com/Daniel-Nas/teaching-assistant/core"
)

var (
	// errors
	ErrNotFound    = errors.New("student not found")
	ErrCPFExists   = errors.New("a student with this CPF is already registered")
	ErrEmailExists = errors.New("a student with this email is already registered")
)

type (
	Repository interface {
		CheckCPFUniqueness(cpf, email string, excludedStudents ...Student) error
		CreateStudent(std Student) (Student, error)
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id int) (Student, error)
		GetStudentByCPF(cpf string) (Student, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Student.Name,
		// Student.CPF or Student.Email.
		FilterStudents(filter QueryFilter) ([]Student, error)
		UpdateStudent(std Student) (Student, error)
		DeleteStudentsByCPF(cpfs ...string) error
	}

	// EnrollmentRekeyer propagates a CPF change to records keyed on the old
	// number. The class service satisfies it.
	EnrollmentRekeyer interface {
		RekeyEnrollments(oldCPF, newCPF string) error
	}

	Service struct {
		repo    Repository
		rekeyer EnrollmentRekeyer
	}
)

func NewService(repo Repository, rekeyer EnrollmentRekeyer) *Service {
	return &Service{repo: repo, rekeyer: rekeyer}
}

// CheckUniqueness promotes a CPF/email collision into a ValidationError
// pointing at the offending field.
func (svc *Service) CheckUniqueness(cpf, email string, exclStds ...Student) error {
	if err := svc.repo.CheckCPFUniqueness(cpf, email, exclStds...); err != nil {
		var field string
		switch err {
		case ErrCPFExists:
			field = "cpf"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewFieldValidationError(field, err)
	}
	return nil
}

func (svc *Service) Create(ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		Name:      ns.Name,
		CPF:       ns.CPF,
		Email:     ns.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(std)
}

func (svc *Service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *Service) GetByID(id int) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) GetByCPF(cpf string) (Student, error) {
	return svc.repo.GetStudentByCPF(core.CleanDigits(cpf))
}

func (svc *Service) Filter(filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(filter)
}

func (svc *Service) Update(orig Student, us UpdateStudent) (Student, error) {
	std, err := svc.repo.UpdateStudent(Student{
		ID:        orig.ID,
		Name:      us.Name,
		CPF:       us.CPF,
		Email:     us.Email,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Student{}, err
	}
	if svc.rekeyer != nil && std.CPF != orig.CPF {
		if err := svc.rekeyer.RekeyEnrollments(orig.CPF, std.CPF); err != nil {
			return Student{}, err
		}
	}
	return std, nil
}

func (svc *Service) Delete(cpfs ...string) error {
	cleaned := make([]string, 0, len(cpfs))
	for _, cpf := range cpfs {
		cleaned = append(cleaned, core.CleanDigits(cpf))
	}
	return svc.repo.DeleteStudentsByCPF(cleaned...)
}
