package student

import (
	"time"

	"github.com/Daniel-Nas/teaching-assistant/core"
)

// Student is a person that can be enrolled in classes.
// The CPF number is the stable identity key joining students to enrollments;
// it is always stored and compared in its normalized (digits-only) form.
type Student struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name  string `json:"name" validate:"required"`
	CPF   string `json:"cpf" validate:"required,cpf"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.CPF = core.CleanDigits(ns.CPF)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.CPF, ns.Email)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf" validate:"omitempty,cpf"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (us *UpdateStudent) Validate(origStd Student, svc *Service) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = origStd.Name
	}

	cpf := core.CleanDigits(us.CPF)
	if cpf != "" {
		us.CPF = cpf
	} else {
		us.CPF = origStd.CPF
	}

	email := core.CleanString(us.Email, true /* lower */)
	if email != "" {
		us.Email = email
	} else {
		us.Email = origStd.Email
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.CPF, us.Email, origStd)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
