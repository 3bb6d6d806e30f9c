package models

// ModuleProgress tracks one user's advance through an educational module:
// a progress percentage and a quiz state.
type ModuleProgress struct {
	UserID   int64
	Module   int
	Progress int
	Quizz    int
}
