package rubric

// Goal is one of the fixed evaluation categories students are graded on.
type Goal string

const (
	GoalRequirements     Goal = "Requirements"
	GoalConfigManagement Goal = "Configuration Management"
	GoalProjectMgmt      Goal = "Project Management"
	GoalDesign           Goal = "Design"
	GoalTests            Goal = "Tests"
	GoalRefactoring      Goal = "Refactoring"
)

// Goals lists every rubric goal in display order.
var Goals = []Goal{
	GoalRequirements,
	GoalConfigManagement,
	GoalProjectMgmt,
	GoalDesign,
	GoalTests,
	GoalRefactoring,
}

func ValidGoal(g Goal) bool {
	for _, goal := range Goals {
		if g == goal {
			return true
		}
	}
	return false
}

// Grade is an ordinal assessment level: MANA < MPA < MA.
// The empty Grade means "ungraded" and ranks with nothing.
type Grade string

const (
	GradeNone Grade = ""     // ungraded
	GradeMANA Grade = "MANA" // Meta Ainda Não Atingida (goal not yet achieved)
	GradeMPA  Grade = "MPA"  // Meta Parcialmente Atingida (goal partially achieved)
	GradeMA   Grade = "MA"   // Meta Atingida (goal achieved)
)

var gradeRanks = map[Grade]int{
	GradeMANA: 1,
	GradeMPA:  2,
	GradeMA:   3,
}

func (g Grade) Valid() bool {
	_, ok := gradeRanks[g]
	return ok
}

// Rank returns the ordinal position of `g`; 0 for ungraded or unknown grades.
func (g Grade) Rank() int {
	return gradeRanks[g]
}
