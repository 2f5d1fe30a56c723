// Package render turns view state into terminal text.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"campusconnect/internal/guard"
	"campusconnect/internal/livelist"
	"campusconnect/internal/models"
	"campusconnect/internal/navigation"
	"campusconnect/internal/recent"
)

type Renderer struct {
	theme Theme
	width int
	now   func() time.Time
}

func New(theme Theme, width int) Renderer {
	if width <= 0 {
		width = 80
	}
	return Renderer{theme: theme, width: width, now: time.Now}
}

func (r Renderer) header(title string) string {
	return lipgloss.NewStyle().
		Foreground(r.theme.Header).
		Bold(true).
		Render(title)
}

func (r Renderer) faint(text string) string {
	return lipgloss.NewStyle().Foreground(r.theme.FaintText).Render(text)
}

func (r Renderer) line(text string) string {
	return lipgloss.NewStyle().MaxWidth(r.width).Render(text)
}

// statusBadge is empty for confirmed entries.
func (r Renderer) statusBadge(status livelist.Status) string {
	switch status {
	case livelist.StatusPending:
		return " " + lipgloss.NewStyle().Foreground(r.theme.Pending).Italic(true).Render("(sending)")
	case livelist.StatusFailed:
		return " " + lipgloss.NewStyle().Foreground(r.theme.Failed).Bold(true).Render("(failed)")
	}
	return ""
}

func (r Renderer) Notifications(entries []livelist.Entry[models.Notification]) string {
	var b strings.Builder
	unread := 0
	for _, e := range entries {
		if !e.Value.IsRead {
			unread++
		}
	}
	b.WriteString(r.header(fmt.Sprintf("Notifications (%d unread)", unread)))
	b.WriteByte('\n')
	if len(entries) == 0 {
		b.WriteString(r.faint("  nothing yet"))
		b.WriteByte('\n')
		return b.String()
	}

	now := r.now()
	for _, e := range entries {
		n := e.Value
		marker := "  "
		text := lipgloss.NewStyle().Foreground(r.theme.NormalText)
		if !n.IsRead {
			marker = lipgloss.NewStyle().Foreground(r.theme.Unread).Render("● ")
			text = text.Bold(true)
		}
		row := marker + text.Render(n.Content) + " " + r.faint(recent.RelativeAge(n.CreatedAt, now)+" · #"+e.Key)
		b.WriteString(r.line(row + r.statusBadge(e.Status)))
		b.WriteByte('\n')
	}
	return b.String()
}

// Conversation renders messages oldest first; selfID's lines are right
// aligned.
func (r Renderer) Conversation(entries []livelist.Entry[models.Message], selfID int64, partner string) string {
	var b strings.Builder
	b.WriteString(r.header("Chat with " + partner))
	b.WriteByte('\n')

	mine := lipgloss.NewStyle().Foreground(r.theme.Accent).Width(r.width).Align(lipgloss.Right)
	theirs := lipgloss.NewStyle().Foreground(r.theme.NormalText).Width(r.width)
	for _, e := range entries {
		m := e.Value
		stamp := m.SentAt.Local().Format("15:04")
		if m.SenderID == selfID {
			b.WriteString(mine.Render(m.Content + " " + r.faint(stamp) + r.statusBadge(e.Status)))
		} else {
			b.WriteString(theirs.Render(r.faint(stamp) + " " + m.Content))
		}
		b.WriteByte('\n')
	}
	for _, e := range entries {
		if e.Status == livelist.StatusFailed {
			b.WriteString(r.faint("  retry a failed message with /retry " + e.Key))
			b.WriteByte('\n')
			break
		}
	}
	return b.String()
}

func (r Renderer) Feed(entries []livelist.Entry[models.Post]) string {
	var b strings.Builder
	b.WriteString(r.header("Feed"))
	b.WriteByte('\n')
	now := r.now()
	for _, e := range entries {
		p := e.Value
		heart := "♡"
		if p.LikedByCurrentUser {
			heart = lipgloss.NewStyle().Foreground(r.theme.Accent).Render("♥")
		}
		author := lipgloss.NewStyle().Bold(true).Render(p.AuthorName)
		b.WriteString(r.line(fmt.Sprintf("#%d %s %s", p.PostID, author, r.faint(recent.RelativeAge(p.CreatedAt, now)))))
		b.WriteByte('\n')
		b.WriteString(lipgloss.NewStyle().Width(r.width).PaddingLeft(2).Render(p.ContentText))
		b.WriteByte('\n')
		counts := fmt.Sprintf("  %s %s  💬 %s", heart, humanize.Comma(int64(p.LikeCount)), humanize.Comma(int64(p.CommentCount)))
		b.WriteString(counts + r.statusBadge(e.Status))
		b.WriteByte('\n')
	}
	return b.String()
}

func (r Renderer) Recent(entries []models.RecentEntry) string {
	var b strings.Builder
	b.WriteString(r.header("Recently accessed"))
	b.WriteByte('\n')
	if len(entries) == 0 {
		b.WriteString(r.faint("  no modules visited yet"))
		b.WriteByte('\n')
		return b.String()
	}
	now := r.now()
	for _, e := range entries {
		b.WriteString(r.line(fmt.Sprintf("  %s %s %s", iconFor(e.Icon), e.Name, r.faint(e.Path+" · "+recent.RelativeAge(e.Timestamp, now)))))
		b.WriteByte('\n')
	}
	return b.String()
}

// Outcome describes where a navigation ended up.
func (r Renderer) Outcome(o navigation.Outcome) string {
	switch o.Decision {
	case guard.Render:
		name := o.Route.Name
		if name == "" {
			name = o.Location
		}
		return r.header(name) + " " + r.faint(o.Location)
	case guard.RedirectUnauthorized:
		denied := lipgloss.NewStyle().Foreground(r.theme.Denied).Render("not available for your role")
		return fmt.Sprintf("%s: %s, showing %s", o.Requested, denied, o.Location)
	default:
		return fmt.Sprintf("%s: redirected to %s", o.Requested, o.Location)
	}
}

func (r Renderer) Profile(p models.Profile) string {
	label := lipgloss.NewStyle().Foreground(r.theme.FaintText).Width(10)
	rows := []string{r.header(p.Name)}
	add := func(name, value string) {
		if value != "" {
			rows = append(rows, label.Render(name)+value)
		}
	}
	add("email", p.Email)
	add("role", string(p.Role))
	add("dept", p.Department)
	add("student", p.StudentID)
	add("phone", p.PhoneNumber)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
