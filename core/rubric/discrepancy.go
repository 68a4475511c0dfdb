package rubric

import "math"

// highlightThreshold is the discrepancy percentage above which a student
// is flagged in the comparison view.
const highlightThreshold = 25

// Discrepancy is the aggregate self-vs-teacher evaluation signal for one student.
type Discrepancy struct {
	Percentage int  `json:"percentage"`
	Highlight  bool `json:"highlight"`
}

// Overstated reports whether a student rated themselves strictly higher on a
// goal than the teacher did. A missing or unknown grade on either side never
// signals a discrepancy; understatement by the student is never flagged.
func Overstated(teacher, self Grade) bool {
	if !teacher.Valid() || !self.Valid() {
		return false
	}
	return teacher.Rank() < self.Rank()
}

// StudentDiscrepancy aggregates per-goal overstatements over `goals`.
// A goal counts as considered when at least one side holds a non-empty grade.
// Percentage is round(100 * discrepant / considered), 0 when nothing was considered.
func StudentDiscrepancy(goals []Goal, teacherEvals, selfEvals map[Goal]Grade) Discrepancy {
	var considered, discrepant int
	for _, goal := range goals {
		t, s := teacherEvals[goal], selfEvals[goal]
		if t == GradeNone && s == GradeNone {
			continue
		}
		considered++
		if Overstated(t, s) {
			discrepant++
		}
	}
	if considered == 0 {
		return Discrepancy{}
	}
	pct := int(math.Round(100 * float64(discrepant) / float64(considered)))
	return Discrepancy{
		Percentage: pct,
		Highlight:  pct > highlightThreshold,
	}
}
