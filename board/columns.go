package board

import (
	"strings"

	"servex-board/domain"
)

// Column is a derived bucket of tasks, never persisted. The synthetic intake
// column always exists; every active process contributes one more.
type Column struct {
	ID     string
	Title  string
	Order  int
	Count  int
	Role   *domain.RoleRef
	Intake bool
}

// Columns derives the display-ordered column list from the active processes
// and the task collection. Pure: recomputed on every render. The processes
// are already sorted by order and intake is always first, so the result
// needs no further sorting. With no processes the board is the lone intake
// column, meaning "no workflow configured", not an error.
func Columns(processes []domain.Process, tasks []domain.Task) []Column {
	columns := make([]Column, 0, len(processes)+1)
	columns = append(columns, Column{
		ID:     domain.StatusIntake,
		Title:  domain.StatusIntake,
		Order:  0,
		Count:  countByStatus(tasks, domain.StatusIntake),
		Intake: true,
	})
	for _, p := range processes {
		col := Column{
			ID:    p.Name,
			Title: strings.ToUpper(p.Name),
			Order: p.Order + 1,
			Count: countByStatus(tasks, p.Name),
		}
		if p.AssignedRole != nil {
			role := *p.AssignedRole
			col.Role = &role
		}
		columns = append(columns, col)
	}
	return columns
}

// TasksIn buckets the tasks visible in a column: exactly those whose status
// equals the column identity. A task whose status matches no column is in no
// bucket.
func TasksIn(columnID string, tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == columnID {
			out = append(out, t)
		}
	}
	return out
}

func countByStatus(tasks []domain.Task, status string) int {
	n := 0
	for _, t := range tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}
