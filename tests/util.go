package testutil

import (
	"testing"
	"time"

	"github.com/Daniel-Nas/teaching-assistant/core/class"
	"github.com/Daniel-Nas/teaching-assistant/core/student"
	"github.com/Daniel-Nas/teaching-assistant/storage/database/inmem"
)

func ResetDB(t *testing.T, db *inmemdb.DB) {
	if err := db.Reset(); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	name, cpf, email string,
	createdAt ...time.Time,
) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std := student.Student{
		Name:      name,
		CPF:       cpf,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	std, err := repo.CreateStudent(std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateClass(
	t *testing.T,
	repo class.Repository,
	topic string,
	year, semester int,
	createdAt ...time.Time,
) class.Class {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	cls := class.Class{
		Topic:       topic,
		Year:        year,
		Semester:    semester,
		Enrollments: []class.Enrollment{},
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	cls, err := repo.CreateClass(cls)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}
