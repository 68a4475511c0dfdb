package inmemdb

import (
	"sort"
	"strings"

	"github.com/Daniel-Nas/teaching-assistant/core/student"
)

type studentRepository struct {
	db *DB
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.students.table))
	for _, std := range repo.db.students.table {
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (repo *studentRepository) CheckCPFUniqueness(cpf, email string, excludedStudents ...student.Student) error {
	repo.db.students.mutex.RLock()
	defer repo.db.students.mutex.RUnlock()

	for _, std := range repo.query() {
		if isExcluded(std, excludedStudents) {
			continue
		}
		if std.CPF == cpf {
			return student.ErrCPFExists
		}
		if email != "" && std.Email == email {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	repo.db.students.mutex.Lock()
	repo.db.students.pk++
	std.ID = repo.db.students.pk
	repo.db.students.table[std.ID] = copyStudent(std)
	repo.db.students.mutex.Unlock()

	repo.db.persist()
	return std, nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	repo.db.students.mutex.RLock()
	defer repo.db.students.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(id int) (student.Student, error) {
	repo.db.students.mutex.RLock()
	defer repo.db.students.mutex.RUnlock()

	if std, ok := repo.db.students.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByCPF(cpf string) (student.Student, error) {
	repo.db.students.mutex.RLock()
	defer repo.db.students.mutex.RUnlock()

	for _, std := range repo.db.students.table {
		if std.CPF == cpf {
			return *std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(filter student.QueryFilter) ([]student.Student, error) {
	repo.db.students.mutex.RLock()
	defer repo.db.students.mutex.RUnlock()

	if filter.IsEmpty() {
		return repo.query(), nil
	}

	search := strings.ToLower(filter.Search)
	matches := make([]student.Student, 0)
	for _, std := range repo.query() {
		if search != "" &&
			!strings.Contains(strings.ToLower(std.Name), search) &&
			!strings.Contains(std.CPF, search) &&
			!strings.Contains(strings.ToLower(std.Email), search) {
			continue
		}
		if !filter.CreatedFrom.IsZero() && std.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && std.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		matches = append(matches, std)
	}
	return matches, nil
}

func (repo *studentRepository) UpdateStudent(std student.Student) (student.Student, error) {
	repo.db.students.mutex.Lock()

	origStd, ok := repo.db.students.table[std.ID]
	if !ok {
		repo.db.students.mutex.Unlock()
		return student.Student{}, student.ErrNotFound
	}
	origStd.Name = std.Name
	origStd.CPF = std.CPF
	origStd.Email = std.Email
	origStd.UpdatedAt = std.UpdatedAt
	std = *origStd
	repo.db.students.mutex.Unlock()

	repo.db.persist()
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByCPF(cpfs ...string) error {
	repo.db.students.mutex.Lock()
	for _, cpf := range cpfs {
		for id, std := range repo.db.students.table {
			if std.CPF == cpf {
				delete(repo.db.students.table, id)
				break
			}
		}
	}
	repo.db.students.mutex.Unlock()

	repo.db.persist()
	return nil
}

func isExcluded(std student.Student, excludedStudents []student.Student) bool {
	for _, ex := range excludedStudents {
		if ex.ID == std.ID {
			return true
		}
	}
	return false
}
