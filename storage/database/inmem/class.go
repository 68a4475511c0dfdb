package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Daniel-Nas/teaching-assistant/core/class"
)

type classRepository struct {
	db *DB
}

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) query() []class.Class {
	classes := make([]class.Class, 0, len(repo.db.classes.table))
	for _, cls := range repo.db.classes.table {
		classes = append(classes, *copyClass(*cls))
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].CreatedAt.Before(classes[j].CreatedAt)
	})
	return classes
}

func (repo *classRepository) CheckIdentityUniqueness(identity string, excludedClasses ...class.Class) error {
	repo.db.classes.mutex.RLock()
	defer repo.db.classes.mutex.RUnlock()

	for _, cls := range repo.db.classes.table {
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
	repo.db.classes.mutex.Lock()
	cls.ID = uuid.New().String()
	repo.db.classes.table[cls.ID] = copyClass(cls)
	repo.db.classes.mutex.Unlock()

	repo.db.persist()
	return cls, nil
}

func (repo *classRepository) QueryAllClasses() ([]class.Class, error) {
	repo.db.classes.mutex.RLock()
	defer repo.db.classes.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *classRepository) GetClassByID(id string) (class.Class, error) {
	repo.db.classes.mutex.RLock()
	defer repo.db.classes.mutex.RUnlock()

	if cls, ok := repo.db.classes.table[id]; ok {
		return *copyClass(*cls), nil
	}
	return class.Class{}, class.ErrNotFound
}

// UpdateClass replaces the stored class wholesale, enrollments included.
// Concurrent writers race on a last-write-wins basis.
func (repo *classRepository) UpdateClass(cls class.Class) (class.Class, error) {
	repo.db.classes.mutex.Lock()

	if _, ok := repo.db.classes.table[cls.ID]; !ok {
		repo.db.classes.mutex.Unlock()
		return class.Class{}, class.ErrNotFound
	}
	repo.db.classes.table[cls.ID] = copyClass(cls)
	repo.db.classes.mutex.Unlock()

	repo.db.persist()
	return cls, nil
}

func (repo *classRepository) DeleteClassesByID(ids ...string) error {
	repo.db.classes.mutex.Lock()
	for _, id := range ids {
		delete(repo.db.classes.table, id)
	}
	repo.db.classes.mutex.Unlock()

	repo.db.persist()
	return nil
}
