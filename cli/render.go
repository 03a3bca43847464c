package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"servex-board/board"
	"servex-board/domain"
)

var (
	columnStyle = lipgloss.NewStyle().
			Width(30).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("221"))
	roleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	cardStyle   = lipgloss.NewStyle().
			Width(26).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// RenderBoard lays the derived columns out side by side. A selection without
// processes renders as "no workflow configured" rather than an empty board.
func RenderBoard(snap board.Snapshot) string {
	if snap.SelectedService == "" {
		return "Select a service to view the kanban board."
	}
	columns := board.Columns(snap.Processes, snap.Tasks)
	if len(columns) == 1 && len(snap.Tasks) == 0 {
		return "No workflow configured for the selected service."
	}
	panels := make([]string, 0, len(columns))
	for _, col := range columns {
		rows := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", col.Title, col.Count))}
		if col.Intake {
			rows = append(rows, metaStyle.Render("New requests start here"))
		} else if col.Role != nil && col.Role.Title != "" {
			rows = append(rows, roleStyle.Render("Role: "+col.Role.Title))
		}
		tasks := board.TasksIn(col.ID, snap.Tasks)
		if len(tasks) == 0 {
			rows = append(rows, metaStyle.Render("(empty)"))
		}
		for _, t := range tasks {
			rows = append(rows, renderCard(t))
		}
		panels = append(panels, columnStyle.Render(strings.Join(rows, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func renderCard(t domain.Task) string {
	lines := []string{
		metaStyle.Render(t.Priority + "  " + t.Created),
		t.Title,
	}
	if t.AssignedStaff != nil {
		lines = append(lines, roleStyle.Render(t.AssignedStaff.AvatarLabel()+" "+t.AssignedStaff.Name))
	}
	lines = append(lines, metaStyle.Render(fmt.Sprintf("#%s  comments %d  files %d", t.ID, t.Comments, t.Attachments)))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// RenderServices lists the loaded services with their booking metadata, the
// selected one marked.
func RenderServices(services []domain.Service, selected string) string {
	if len(services) == 0 {
		return "No services available."
	}
	lines := make([]string, 0, len(services)+1)
	lines = append(lines, headerStyle.Render("Services"))
	for i, svc := range services {
		marker := "  "
		line := fmt.Sprintf("%d. %s", i+1, svc.Name)
		if svc.ID == selected {
			marker = selectedStyle.Render("> ")
			line = selectedStyle.Render(line)
		}
		lines = append(lines, marker+line)
		meta := fmt.Sprintf("Fee: LKR %.0f | Duration: %d min | Max people: %d", svc.Fee, svc.SlotDuration, svc.MaxPeoplePerSlot)
		lines = append(lines, "   "+metaStyle.Render(meta))
		if svc.Note != "" {
			lines = append(lines, "   "+metaStyle.Render(svc.Note))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderStaff lists a column's staff directory.
func RenderStaff(role domain.RoleRef, staff []domain.StaffMember) string {
	title := "Staff"
	if role.Title != "" {
		title = "Staff for role " + role.Title
	}
	lines := []string{headerStyle.Render(title)}
	if len(staff) == 0 {
		lines = append(lines, metaStyle.Render("(directory loading, repeat the command)"))
	}
	for _, member := range staff {
		lines = append(lines, fmt.Sprintf("%s %s  %s", member.AvatarLabel(), member.Name, metaStyle.Render(member.Email+"  id="+member.ID)))
	}
	return strings.Join(lines, "\n")
}
