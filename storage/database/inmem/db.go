package inmemdb

import (
	"sync"

	"github.com/Daniel-Nas/teaching-assistant/core"
	"github.com/Daniel-Nas/teaching-assistant/core/class"
	"github.com/Daniel-Nas/teaching-assistant/core/rubric"
	"github.com/Daniel-Nas/teaching-assistant/core/student"
)

type (
	// DB is the in-memory store backing the application. All state lives in
	// maps guarded by per-table RW locks; an optional JSON snapshot file is
	// read once at open and rewritten (best-effort, asynchronously) after
	// every mutation.
	DB struct {
		students *studentTable
		classes  *classTable
		snap     *snapshotter
	}

	studentTable struct {
		table map[int]*student.Student
		pk    int
		mutex sync.RWMutex
	}

	classTable struct {
		table map[string]*class.Class
		mutex sync.RWMutex
	}
)

// Open initializes the store. When `path` is non-empty the snapshot found
// there (if any) repopulates the tables before anything else runs.
func Open(path string, logger core.Logger) (*DB, error) {
	db := &DB{
		students: &studentTable{table: make(map[int]*student.Student)},
		classes:  &classTable{table: make(map[string]*class.Class)},
	}
	if path != "" {
		db.snap = newSnapshotter(path, logger, db)
		if err := db.snap.load(); err != nil {
			return nil, err
		}
		go db.snap.run()
	}
	return db, nil
}

// persist signals the snapshotter that state changed. It never blocks and
// never reports back; a failed write is logged and swallowed (the in-memory
// state and the on-disk snapshot may diverge until the next mutation).
func (db *DB) persist() {
	if db.snap != nil {
		db.snap.request()
	}
}

// Reset empties all tables and restarts the primary key sequence.
// Meant for tests.
func (db *DB) Reset() error {
	db.students.mutex.Lock()
	db.students.table = make(map[int]*student.Student)
	db.students.pk = 0
	db.students.mutex.Unlock()

	db.classes.mutex.Lock()
	db.classes.table = make(map[string]*class.Class)
	db.classes.mutex.Unlock()

	db.persist()
	return nil
}

// Flush writes the snapshot synchronously.
func (db *DB) Flush() error {
	if db.snap == nil {
		return nil
	}
	return db.snap.save()
}

// Close stops the background snapshotter and writes a final snapshot.
// The in-memory tables stay usable but nothing persists afterwards.
func (db *DB) Close() error {
	if db.snap == nil {
		return nil
	}
	db.snap.stop()
	return db.snap.save()
}

func copyStudent(std student.Student) *student.Student {
	cp := std
	return &cp
}

// copyClass deep-copies a class so callers can never alias table state.
func copyClass(cls class.Class) *class.Class {
	cp := cls
	cp.Enrollments = make([]class.Enrollment, len(cls.Enrollments))
	for i, enr := range cls.Enrollments {
		enrCp := enr
		enrCp.TeacherEvals = copyEvals(enr.TeacherEvals)
		enrCp.SelfEvals = copyEvals(enr.SelfEvals)
		cp.Enrollments[i] = enrCp
	}
	return &cp
}

func copyEvals(evals map[rubric.Goal]rubric.Grade) map[rubric.Goal]rubric.Grade {
	cp := make(map[rubric.Goal]rubric.Grade, len(evals))
	for g, v := range evals {
		cp[g] = v
	}
	return cp
}
