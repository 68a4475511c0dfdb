package inmemdb

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/Daniel-Nas/teaching-assistant/core"
	"github.com/Daniel-Nas/teaching-assistant/core/class"
	"github.com/Daniel-Nas/teaching-assistant/core/rubric"
	"github.com/Daniel-Nas/teaching-assistant/core/student"
)

// snapshotData is the on-disk JSON form of the whole store.
type snapshotData struct {
	StudentPK int               `json:"student_pk"`
	Students  []student.Student `json:"students"`
	Classes   []class.Class     `json:"classes"`
}

// snapshotter serializes snapshot writes on a single goroutine. Mutations
// only kick the (size-1) signal channel, so bursts coalesce into one write
// and callers never wait on disk I/O.
type snapshotter struct {
	path   string
	logger core.Logger
	db     *DB
	kick   chan struct{}
	quit   chan struct{}
	done   chan struct{}

	stopOnce sync.Once
	// writeMu serializes save() between the run() goroutine and synchronous
	// callers (Flush, Close); both target the same tmp file.
	writeMu sync.Mutex
}

func newSnapshotter(path string, logger core.Logger, db *DB) *snapshotter {
	return &snapshotter{
		path:   path,
		logger: logger,
		db:     db,
		kick:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *snapshotter) request() {
	select {
	case s.kick <- struct{}{}:
	default: // a write is already pending; it will pick up this change
	}
}

func (s *snapshotter) run() {
	defer close(s.done)
	for {
		select {
		case <-s.kick:
			if err := s.save(); err != nil {
				s.logger.Error("saving snapshot", err)
			}
		case <-s.quit:
			return
		}
	}
}

// stop terminates the run() goroutine and waits for any in-flight write.
func (s *snapshotter) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (s *snapshotter) save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.db.students.mutex.RLock()
	s.db.classes.mutex.RLock()
	data := snapshotData{
		StudentPK: s.db.students.pk,
		Students:  make([]student.Student, 0, len(s.db.students.table)),
		Classes:   make([]class.Class, 0, len(s.db.classes.table)),
	}
	for _, std := range s.db.students.table {
		data.Students = append(data.Students, *std)
	}
	for _, cls := range s.db.classes.table {
		data.Classes = append(data.Classes, *copyClass(*cls))
	}
	s.db.classes.mutex.RUnlock()
	s.db.students.mutex.RUnlock()

	// stable file ordering, diffs stay readable
	sort.Slice(data.Students, func(i, j int) bool { return data.Students[i].ID < data.Students[j].ID })
	sort.Slice(data.Classes, func(i, j int) bool { return data.Classes[i].ID < data.Classes[j].ID })

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating snapshot dir")
	}
	tmp := s.path + ".tmp"
	if err := ioutil.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "writing snapshot")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replacing snapshot")
}

func (s *snapshotter) load() error {
	raw, err := ioutil.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil // first run
	} else if err != nil {
		return errors.Wrap(err, "reading snapshot")
	}

	var data snapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return errors.Wrap(err, "parsing snapshot")
	}

	s.db.students.mutex.Lock()
	s.db.students.pk = data.StudentPK
	for i := range data.Students {
		std := data.Students[i]
		s.db.students.table[std.ID] = &std
		if std.ID > s.db.students.pk {
			s.db.students.pk = std.ID
		}
	}
	s.db.students.mutex.Unlock()

	s.db.classes.mutex.Lock()
	for i := range data.Classes {
		cls := data.Classes[i]
		for j := range cls.Enrollments {
			// nil maps never round-trip through JSON
			if cls.Enrollments[j].TeacherEvals == nil {
				cls.Enrollments[j].TeacherEvals = make(map[rubric.Goal]rubric.Grade)
			}
			if cls.Enrollments[j].SelfEvals == nil {
				cls.Enrollments[j].SelfEvals = make(map[rubric.Goal]rubric.Grade)
			}
		}
		s.db.classes.table[cls.ID] = &cls
	}
	s.db.classes.mutex.Unlock()
	return nil
}
