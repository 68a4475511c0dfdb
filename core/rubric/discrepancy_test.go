package rubric

import "testing"

func TestOverstated(t *testing.T) {
	tests := []struct {
		name          string
		teacher, self Grade
		want          bool
	}{
		{name: "both ungraded", teacher: GradeNone, self: GradeNone},
		{name: "teacher missing", teacher: GradeNone, self: GradeMA},
		{name: "self missing", teacher: GradeMANA, self: GradeNone},
		{name: "unknown grade", teacher: Grade("X"), self: GradeMA},
		{name: "equal MA", teacher: GradeMA, self: GradeMA},
		{name: "equal MANA", teacher: GradeMANA, self: GradeMANA},
		{name: "understatement is never flagged", teacher: GradeMA, self: GradeMANA},
		{name: "MANA < MPA", teacher: GradeMANA, self: GradeMPA, want: true},
		{name: "MANA < MA", teacher: GradeMANA, self: GradeMA, want: true},
		{name: "MPA < MA", teacher: GradeMPA, self: GradeMA, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overstated(tt.teacher, tt.self); got != tt.want {
				t.Errorf("Overstated(%q, %q) = %v, want %v", tt.teacher, tt.self, got, tt.want)
			}
		})
	}
}

func TestStudentDiscrepancy(t *testing.T) {
	tests := []struct {
		name         string
		goals        []Goal
		teacherEvals map[Goal]Grade
		selfEvals    map[Goal]Grade
		want         Discrepancy
	}{
		{name: "no goals", goals: nil},
		{name: "nothing graded", goals: Goals},
		{
			name:  "all agreeing",
			goals: Goals,
			teacherEvals: map[Goal]Grade{
				GoalDesign: GradeMA,
				GoalTests:  GradeMPA,
			},
			selfEvals: map[Goal]Grade{
				GoalDesign: GradeMA,
				GoalTests:  GradeMPA,
			},
			want: Discrepancy{Percentage: 0, Highlight: false},
		},
		{
			// considered: G1 (agree), G2 (overstated), G3 (self only)
			name:  "one of three overstated",
			goals: Goals,
			teacherEvals: map[Goal]Grade{
				GoalRequirements:     GradeMA,
				GoalConfigManagement: GradeMPA,
			},
			selfEvals: map[Goal]Grade{
				GoalRequirements:     GradeMA,
				GoalConfigManagement: GradeMA,
				GoalProjectMgmt:      GradeMANA,
			},
			want: Discrepancy{Percentage: 33, Highlight: true},
		},
		{
			name:  "exactly at threshold is not highlighted",
			goals: Goals,
			teacherEvals: map[Goal]Grade{
				GoalRequirements:     GradeMANA,
				GoalConfigManagement: GradeMA,
				GoalProjectMgmt:      GradeMA,
				GoalDesign:           GradeMA,
			},
			selfEvals: map[Goal]Grade{
				GoalRequirements:     GradeMPA,
				GoalConfigManagement: GradeMA,
				GoalProjectMgmt:      GradeMA,
				GoalDesign:           GradeMA,
			},
			want: Discrepancy{Percentage: 25, Highlight: false},
		},
		{
			name:  "all overstated",
			goals: Goals,
			teacherEvals: map[Goal]Grade{
				GoalTests:       GradeMANA,
				GoalRefactoring: GradeMPA,
			},
			selfEvals: map[Goal]Grade{
				GoalTests:       GradeMA,
				GoalRefactoring: GradeMA,
			},
			want: Discrepancy{Percentage: 100, Highlight: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StudentDiscrepancy(tt.goals, tt.teacherEvals, tt.selfEvals); got != tt.want {
				t.Errorf("StudentDiscrepancy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
