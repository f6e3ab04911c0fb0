package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/isdelr/taskboard-be/internal/client"
	"github.com/isdelr/taskboard-be/internal/models"
	ws "github.com/isdelr/taskboard-be/internal/websocket"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tUPDATED")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, t.UpdatedAt.Local().Format(timeLayout))
	}
	tw.Flush()
}

func printTask(w io.Writer, t models.Task) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(tw, "Updated:\t%s\n", t.UpdatedAt.Local().Format(timeLayout))
	tw.Flush()
}

func printUsers(w io.Writer, users []models.User) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tJOINED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Local().Format(time.DateOnly))
	}
	tw.Flush()
}

func printStats(w io.Writer, s client.Stats) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total:\t%d\n", s.Total)
	fmt.Fprintf(tw, "Completed:\t%d\n", s.Completed)
	fmt.Fprintf(tw, "In progress:\t%d\n", s.InProgress)
	fmt.Fprintf(tw, "Pending:\t%d\n", s.Pending)
	fmt.Fprintf(tw, "High priority:\t%d\n", s.HighPriority)
	fmt.Fprintf(tw, "Completion:\t%d%%\n", s.CompletionRate)
	tw.Flush()
}

func printEvents(w io.Writer, events []models.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No activity")
		return
	}
	tw := newTable(w)
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(timeLayout), e.Level, e.Type, e.Message)
	}
	tw.Flush()
}

func printMessage(w io.Writer, msg ws.Message) {
	switch msg.Action {
	case "pong":
		fmt.Fprintln(w, "Connected; waiting for task changes")
	default:
		if p, ok := msg.Payload.(map[string]any); ok {
			if id, ok := p["id"].(string); ok {
				fmt.Fprintf(w, "%s %s\n", msg.Action, id)
				return
			}
		}
		fmt.Fprintf(w, "%s %v\n", msg.Action, msg.Payload)
	}
}
