package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Daniel-Nas/teaching-assistant/core/student"
)

type studentRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	CPF       string    `db:"cpf"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r studentRow) toDomain() student.Student {
	return student.Student{
		ID:        r.ID,
		Name:      r.Name,
		CPF:       r.CPF,
		Email:     r.Email,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckCPFUniqueness(cpf, email string, excludedStudents ...student.Student) error {
	exclIDs := make([]int, 0, len(excludedStudents))
	for _, std := range excludedStudents {
		exclIDs = append(exclIDs, std.ID)
	}
	if len(exclIDs) == 0 {
		exclIDs = append(exclIDs, 0) // empty IN () is invalid SQL
	}

	query, args, err := sqlx.In(`SELECT cpf, email FROM student WHERE (cpf = ? OR (email <> '' AND email = ?)) AND id NOT IN (?)`, cpf, email, exclIDs)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var rows []studentRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking CPF uniqueness")
	}
	for _, row := range rows {
		if row.CPF == cpf {
			return student.ErrCPFExists
		}
	}
	if len(rows) > 0 {
		return student.ErrEmailExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	err := repo.db.QueryRow(
		`INSERT INTO student (name, cpf, email, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		std.Name, std.CPF, std.Email, std.CreatedAt, std.UpdatedAt,
	).Scan(&std.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	var rows []studentRow
	if err := repo.db.Select(&rows, `SELECT * FROM student ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return toDomainStudents(rows), nil
}

func (repo *studentRepository) GetStudentByID(id int) (student.Student, error) {
	var row studentRow
	if err := repo.db.Get(&row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by id")
	}
	return row.toDomain(), nil
}

func (repo *studentRepository) GetStudentByCPF(cpf string) (student.Student, error) {
	var row studentRow
	if err := repo.db.Get(&row, `SELECT * FROM student WHERE cpf = $1`, cpf); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by cpf")
	}
	return row.toDomain(), nil
}

func (repo *studentRepository) FilterStudents(filter student.QueryFilter) ([]student.Student, error) {
	query := `SELECT * FROM student WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		query += ` AND (lower(name) LIKE ? OR cpf LIKE ? OR lower(email) LIKE ?)`
		args = append(args, args[0], args[0])
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom)
		query += ` AND created_at >= ?`
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo)
		query += ` AND created_at <= ?`
	}
	query += ` ORDER BY id`

	var rows []studentRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	return toDomainStudents(rows), nil
}

func (repo *studentRepository) UpdateStudent(std student.Student) (student.Student, error) {
	res, err := repo.db.Exec(
		`UPDATE student SET name = $1, cpf = $2, email = $3, updated_at = $4 WHERE id = $5`,
		std.Name, std.CPF, std.Email, std.UpdatedAt, std.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(std.ID)
}

func (repo *studentRepository) DeleteStudentsByCPF(cpfs ...string) error {
	if len(cpfs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM student WHERE cpf IN (?)`, cpfs)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = repo.db.Exec(repo.db.Rebind(query), args...)
	return errors.Wrap(err, "deleting students")
}

func toDomainStudents(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toDomain())
	}
	return students
}
