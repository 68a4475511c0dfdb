package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/Daniel-Nas/teaching-assistant/core/class"
)

type classRow struct {
	ID          string         `db:"id"`
	Topic       string         `db:"topic"`
	Semester    int            `db:"semester"`
	Year        int            `db:"year"`
	Enrollments types.JSONText `db:"enrollments"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r classRow) toDomain() (class.Class, error) {
	cls := class.Class{
		ID:          r.ID,
		Topic:       r.Topic,
		Semester:    r.Semester,
		Year:        r.Year,
		Enrollments: make([]class.Enrollment, 0),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal(r.Enrollments, &cls.Enrollments); err != nil {
		return class.Class{}, errors.Wrap(err, "parsing enrollments")
	}
	return cls, nil
}

func marshalEnrollments(cls class.Class) (types.JSONText, error) {
	enrs := cls.Enrollments
	if enrs == nil {
		enrs = make([]class.Enrollment, 0)
	}
	raw, err := json.Marshal(enrs)
	return types.JSONText(raw), errors.Wrap(err, "marshaling enrollments")
}

type classRepository struct {
	db *sqlx.DB
}

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CheckIdentityUniqueness(identity string, excludedClasses ...class.Class) error {
	// the identity string is derived; compare against every row's derivation
	classes, err := repo.QueryAllClasses()
	if err != nil {
		return err
	}
	for _, cls := range classes {
		if cls.Identity() != identity {
			continue
		}
		excluded := false
		for _, ex := range excludedClasses {
			if ex.ID == cls.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return class.ErrClassExists
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(cls class.Class) (class.Class, error) {
	cls.ID = uuid.New().String()
	enrs, err := marshalEnrollments(cls)
	if err != nil {
		return class.Class{}, err
	}
	_, err = repo.db.Exec(
		`INSERT INTO class (id, topic, semester, year, enrollments, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cls.ID, cls.Topic, cls.Semester, cls.Year, enrs, cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *classRepository) QueryAllClasses() ([]class.Class, error) {
	var rows []classRow
	if err := repo.db.Select(&rows, `SELECT * FROM class ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		cls, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

func (repo *classRepository) GetClassByID(id string) (class.Class, error) {
	var row classRow
	if err := repo.db.Get(&row, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "getting class by id")
	}
	return row.toDomain()
}

func (repo *classRepository) UpdateClass(cls class.Class) (class.Class, error) {
	enrs, err := marshalEnrollments(cls)
	if err != nil {
		return class.Class{}, err
	}
	res, err := repo.db.Exec(
		`UPDATE class SET topic = $1, semester = $2, year = $3, enrollments = $4, updated_at = $5 WHERE id = $6`,
		cls.Topic, cls.Semester, cls.Year, enrs, cls.UpdatedAt, cls.ID,
	)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return cls, nil
}

func (repo *classRepository) DeleteClassesByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM class WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = repo.db.Exec(repo.db.Rebind(query), args...)
	return errors.Wrap(err, "deleting classes")
}
