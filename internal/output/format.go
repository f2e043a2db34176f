// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todoctl/internal/service"
)

// TimeLayout is used for task timestamps.
const TimeLayout = "2006-01-02 15:04"

// FormatTask formats a task line for the task list.
// Format: "{ID:>4}  [x] {TITLE}\n" (4-wide right-aligned ID, two spaces, checkbox, title)
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, checkbox(task.Completed), normalizeTitle(task.Title))
}

// FormatTaskDetail prints every field of a task.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "#%d %s %s\n", task.ID, checkbox(task.Completed), normalizeTitle(task.Title))
	if desc := strings.TrimSpace(task.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "    %s\n", strings.TrimRight(line, "\r"))
		}
	}
	fmt.Fprintf(w, "created: %s\n", formatTime(task.CreatedAt))
	fmt.Fprintf(w, "updated: %s\n", formatTime(task.UpdatedAt))
}

// FormatUser prints the session user.
func FormatUser(w io.Writer, user *service.User) {
	if user == nil {
		fmt.Fprintln(w, "(unknown user)")
		return
	}
	if user.Email == "" {
		fmt.Fprintln(w, user.Name)
		return
	}
	fmt.Fprintf(w, "%s <%s>\n", user.Name, user.Email)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(TimeLayout)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
