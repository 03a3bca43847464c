// Package cli provides the command surface and the terminal rendering of the
// board. The interactive session stands in for the drag-and-drop UI: every
// line of input is one user event, handled to completion before the next.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"servex-board/board"
	"servex-board/domain"
)

// Session wires the controller to a line-oriented terminal.
type Session struct {
	ctrl *board.Controller
	in   io.Reader
	out  io.Writer
}

// NewSession creates an interactive session over the given streams.
func NewSession(ctrl *board.Controller, in io.Reader, out io.Writer) *Session {
	return &Session{ctrl: ctrl, in: in, out: out}
}

// Run loads the service list, selects the first service and then processes
// commands until EOF or quit.
func (s *Session) Run(ctx context.Context) error {
	s.ctrl.Start(ctx)
	snap := s.ctrl.Snapshot()
	fmt.Fprintln(s.out, RenderServices(snap.Services, snap.SelectedService))
	fmt.Fprintln(s.out, RenderBoard(snap))
	s.printHelp()

	scanner := bufio.NewScanner(s.in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(s.out, "> ")
			continue
		}
		if quit := s.handle(ctx, line); quit {
			return scanner.Err()
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

func (s *Session) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		s.printHelp()
	case "services":
		snap := s.ctrl.Snapshot()
		fmt.Fprintln(s.out, RenderServices(snap.Services, snap.SelectedService))
	case "board":
		fmt.Fprintln(s.out, RenderBoard(s.ctrl.Snapshot()))
	case "select":
		s.selectService(ctx, args)
	case "move":
		s.move(args)
	case "assign":
		s.assign(args)
	case "staff":
		s.staff(args)
	case "add":
		s.add(ctx, strings.TrimSpace(strings.TrimPrefix(line, "add")))
	default:
		fmt.Fprintf(s.out, "unknown command %q, try 'help'\n", cmd)
	}
	return false
}

func (s *Session) selectService(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "usage: select <service number or id>")
		return
	}
	id := args[0]
	if n, err := strconv.Atoi(id); err == nil {
		services := s.ctrl.Snapshot().Services
		if n < 1 || n > len(services) {
			fmt.Fprintf(s.out, "no service #%d\n", n)
			return
		}
		id = services[n-1].ID
	}
	s.ctrl.SelectService(ctx, id)
	fmt.Fprintln(s.out, RenderBoard(s.ctrl.Snapshot()))
}

func (s *Session) move(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "usage: move <task id> <column>")
		return
	}
	taskID, columnID := args[0], strings.ToUpper(args[1])
	if _, ok := s.ctrl.Drop(taskID, columnID); !ok {
		fmt.Fprintf(s.out, "cannot move %s to %s: unknown task or column\n", taskID, columnID)
		return
	}
	fmt.Fprintln(s.out, RenderBoard(s.ctrl.Snapshot()))
}

func (s *Session) assign(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "usage: assign <task id> <staff id|none>")
		return
	}
	taskID, staffID := args[0], args[1]
	var member *domain.StaffMember
	if staffID != "none" {
		task, ok := s.findTask(taskID)
		if !ok {
			fmt.Fprintf(s.out, "unknown task %s\n", taskID)
			return
		}
		for _, candidate := range s.ctrl.ColumnStaff(task.Status) {
			if candidate.ID == staffID {
				cp := candidate
				member = &cp
				break
			}
		}
		if member == nil {
			fmt.Fprintf(s.out, "staff %s not in this column's directory, try 'staff %s'\n", staffID, task.Status)
			return
		}
	}
	if _, ok := s.ctrl.AssignStaff(taskID, member); !ok {
		fmt.Fprintf(s.out, "unknown task %s\n", taskID)
		return
	}
	fmt.Fprintln(s.out, RenderBoard(s.ctrl.Snapshot()))
}

func (s *Session) staff(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: staff <column>")
		return
	}
	columnID := strings.ToUpper(args[0])
	role, ok := s.ctrl.ColumnRole(columnID)
	if !ok {
		fmt.Fprintf(s.out, "column %s has no staff role\n", columnID)
		return
	}
	fmt.Fprintln(s.out, RenderStaff(role, s.ctrl.ColumnStaff(columnID)))
}

func (s *Session) add(ctx context.Context, title string) {
	if _, ok := s.ctrl.CreateTask(ctx, title, ""); !ok {
		// empty title, mirrors the disabled submit button
		return
	}
	fmt.Fprintln(s.out, RenderBoard(s.ctrl.Snapshot()))
}

func (s *Session) findTask(taskID string) (domain.Task, bool) {
	for _, t := range s.ctrl.Snapshot().Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return domain.Task{}, false
}

func (s *Session) printHelp() {
	fmt.Fprint(s.out, `commands:
  services                    list services
  select <n|id>               switch the board to a service
  board                       redraw the board
  move <task> <column>        move a task to a column
  assign <task> <staff|none>  assign or clear a task's staff
  staff <column>              show a column's staff directory
  add <title>                 create a task in the intake column
  quit                        exit
`)
}
