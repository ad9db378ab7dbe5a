package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/oactl/internal/api"
)

// View renders the current state
func (b *Browser) View() string {
	if b.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(b.styles.Title.Render(b.title))
	s.WriteString("\n")

	switch b.mode {
	case modeDetail:
		s.WriteString(b.renderDetail())
	case modeReply:
		s.WriteString(b.renderDetail())
		s.WriteString("\n")
		s.WriteString(b.renderReply())
	default:
		s.WriteString(b.table.View())
		s.WriteString("\n")
		s.WriteString(b.renderPager())
	}

	s.WriteString("\n")
	if line := b.renderStatus(); line != "" {
		s.WriteString(line)
		s.WriteString("\n")
	}
	s.WriteString(b.help.View(helpKeys{short: b.bindings()}))
	return s.String()
}

func (b *Browser) renderPager() string {
	text := fmt.Sprintf("page %d of %d, %d records", b.state.Page, b.pages(), b.state.Total)
	if b.loading {
		text += ", loading"
	}
	return b.styles.Muted.Render(text)
}

func (b *Browser) renderDetail() string {
	row, ok := b.selected()
	if !ok {
		return b.styles.Muted.Render("nothing selected")
	}

	status := b.styles.Pending
	switch row.Status {
	case api.StatusApproved:
		status = b.styles.Approved
	case api.StatusRejected:
		status = b.styles.Rejected
	}

	details := []struct {
		key   string
		value string
	}{
		{"Title", row.Title},
		{"Type", row.Type},
		{"Requester", row.Requester},
		{"Approver", row.Responder},
		{"Start", row.Start},
		{"End", row.End},
		{"Submitted", row.Created},
		{"Reason", row.Reason},
		{"Comment", row.Reply},
	}

	var s strings.Builder
	s.WriteString(b.styles.Key.Render(fmt.Sprintf("%-10s:", "Status")))
	s.WriteString(" ")
	s.WriteString(status.Render(row.StatusLabel()))
	for _, d := range details {
		if d.value == "" {
			continue
		}
		s.WriteString("\n")
		s.WriteString(b.styles.Key.Render(fmt.Sprintf("%-10s:", d.key)))
		s.WriteString(" ")
		s.WriteString(b.styles.Value.Render(d.value))
	}
	return b.styles.Border.Render(s.String())
}

func (b *Browser) renderReply() string {
	label := b.styles.Rejected.Render("Reject")
	if b.approve {
		label = b.styles.Approved.Render("Approve")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", b.input.View())
}

func (b *Browser) renderStatus() string {
	if b.err != nil {
		return b.styles.Error.Render("✗ " + b.err.Error())
	}
	level, msg := b.status.Last()
	if msg == "" {
		return ""
	}
	switch level {
	case LevelSuccess:
		return b.styles.Success.Render("✓ " + msg)
	case LevelWarning:
		return b.styles.Warning.Render("⚠ " + msg)
	case LevelError:
		return b.styles.Error.Render("✗ " + msg)
	default:
		return b.styles.Subtitle.Render(msg)
	}
}

func (b *Browser) bindings() []key.Binding {
	switch b.mode {
	case modeReply:
		return []key.Binding{keys.Submit, keys.Back}
	case modeDetail:
		if b.decider != nil {
			return []key.Binding{keys.Back, keys.Approve, keys.Reject, keys.Quit}
		}
		return []key.Binding{keys.Back, keys.Quit}
	}
	list := []key.Binding{keys.Up, keys.Down, keys.Next, keys.Prev, keys.Open, keys.Refresh}
	if b.decider != nil {
		list = append(list, keys.Approve, keys.Reject)
	}
	return append(list, keys.Quit)
}
