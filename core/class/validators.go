package class

import (
	"github.com/go-playground/validator/v10"

	"github.com/Daniel-Nas/teaching-assistant/core"
	"github.com/Daniel-Nas/teaching-assistant/core/rubric"
)

var (
	goalTag  = "rubricgoal"
	goalText = "unknown rubric goal"

	gradeTag  = "rubricgrade"
	gradeText = "grade must be one of MANA, MPA or MA"

	kindTag  = "evalkind"
	kindText = "kind must be teacher or self"
)

func init() {
	_ = core.Validate.RegisterValidation(goalTag, goalValidation)
	core.RegisterCustomTranslation(goalTag, goalText)

	_ = core.Validate.RegisterValidation(gradeTag, gradeValidation)
	core.RegisterCustomTranslation(gradeTag, gradeText)

	_ = core.Validate.RegisterValidation(kindTag, kindValidation)
	core.RegisterCustomTranslation(kindTag, kindText)
}

// goalValidation checks that the provided goal is part of the rubric.
func goalValidation(fl validator.FieldLevel) bool {
	return rubric.ValidGoal(rubric.Goal(fl.Field().String()))
}

// gradeValidation checks that the provided grade is a valid ordinal level.
// The empty grade passes through `omitempty` before reaching this.
func gradeValidation(fl validator.FieldLevel) bool {
	return rubric.Grade(fl.Field().String()).Valid()
}

func kindValidation(fl validator.FieldLevel) bool {
	return Kind(fl.Field().String()).Valid()
}
