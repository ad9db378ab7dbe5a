package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/viewmodel"
)

// Source is a paginated attendance page. Both *viewmodel.MyAttendance and
// *viewmodel.EmpAttendance satisfy it.
type Source interface {
	State() viewmodel.ListState
	SetPage(ctx context.Context, page int) error
}

// Decider approves or rejects a request. *viewmodel.EmpAttendance satisfies it.
type Decider interface {
	Approve(ctx context.Context, id int, content string) error
	Reject(ctx context.Context, id int, content string) error
}

type mode int

const (
	modeList mode = iota
	modeDetail
	modeReply
)

type loadedMsg struct {
	state viewmodel.ListState
	err   error
}

type decidedMsg struct {
	err error
}

// Browser pages through attendance records and, when it has a Decider,
// approves or rejects the pending ones.
type Browser struct {
	ctx     context.Context
	title   string
	who     api.Who
	src     Source
	decider Decider
	status  *StatusLine

	table  table.Model
	input  textinput.Model
	help   help.Model
	styles Styles

	state    viewmodel.ListState
	rows     []viewmodel.AttendanceRow
	mode     mode
	approve  bool
	loading  bool
	err      error
	width    int
	quitting bool
}

// BrowserOptions configures NewBrowser.
type BrowserOptions struct {
	Title string
	// Who selects the counterpart column: the responder for my requests,
	// the requester for requests awaiting me.
	Who     api.Who
	Decider Decider
	// Status is rendered under the table. View models should report into it.
	Status *StatusLine
}

// NewBrowser creates the model. Nothing is fetched until Init.
func NewBrowser(ctx context.Context, src Source, opts BrowserOptions) *Browser {
	if opts.Status == nil {
		opts.Status = &StatusLine{}
	}
	if opts.Title == "" {
		opts.Title = "Attendance"
	}

	counterpart := "Approver"
	if opts.Who == api.WhoResponder {
		counterpart = "Requester"
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Title", Width: 20},
			{Title: "Type", Width: 12},
			{Title: counterpart, Width: 12},
			{Title: "Status", Width: 9},
			{Title: "Start", Width: 19},
			{Title: "End", Width: 19},
		}),
		table.WithFocused(true),
		table.WithHeight(viewmodel.DefaultPageSize+1),
	)

	in := textinput.New()
	in.Placeholder = "comment (optional)"
	in.CharLimit = 200

	return &Browser{
		ctx:     ctx,
		title:   opts.Title,
		who:     opts.Who,
		src:     src,
		decider: opts.Decider,
		status:  opts.Status,
		table:   t,
		input:   in,
		help:    help.New(),
		styles:  DefaultStyles(),
		state:   src.State(),
	}
}

// Init loads the current page.
func (b *Browser) Init() tea.Cmd {
	return b.fetch(b.state.Page)
}

func (b *Browser) fetch(page int) tea.Cmd {
	b.loading = true
	return func() tea.Msg {
		err := b.src.SetPage(b.ctx, page)
		return loadedMsg{state: b.src.State(), err: err}
	}
}

func (b *Browser) decide(id int, approve bool, content string) tea.Cmd {
	return func() tea.Msg {
		var err error
		if approve {
			err = b.decider.Approve(b.ctx, id, content)
		} else {
			err = b.decider.Reject(b.ctx, id, content)
		}
		return decidedMsg{err: err}
	}
}

// Update handles messages and updates the model
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.help.Width = msg.Width
		if h := msg.Height - 10; h > 3 {
			b.table.SetHeight(h)
		}
		return b, nil

	case loadedMsg:
		b.loading = false
		b.err = unreported(msg.err)
		if msg.err == nil {
			b.setState(msg.state)
		}
		return b, nil

	case decidedMsg:
		b.mode = modeList
		b.err = unreported(msg.err)
		// a successful decision reloads page one inside the view model
		b.setState(b.src.State())
		return b, nil

	case tea.KeyMsg:
		switch b.mode {
		case modeReply:
			return b.updateReply(msg)
		case modeDetail:
			return b.updateDetail(msg)
		default:
			return b.updateList(msg)
		}
	}

	return b, nil
}

func (b *Browser) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		b.quitting = true
		return b, tea.Quit
	case key.Matches(msg, keys.Next):
		if b.hasNext() && !b.loading {
			return b, b.fetch(b.state.Page + 1)
		}
		return b, nil
	case key.Matches(msg, keys.Prev):
		if b.state.Page > 1 && !b.loading {
			return b, b.fetch(b.state.Page - 1)
		}
		return b, nil
	case key.Matches(msg, keys.Refresh):
		return b, b.fetch(b.state.Page)
	case key.Matches(msg, keys.Open):
		if _, ok := b.selected(); ok {
			b.mode = modeDetail
		}
		return b, nil
	case key.Matches(msg, keys.Approve), key.Matches(msg, keys.Reject):
		return b, b.startReply(key.Matches(msg, keys.Approve))
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

func (b *Browser) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		b.quitting = true
		return b, tea.Quit
	case key.Matches(msg, keys.Back):
		b.mode = modeList
	case key.Matches(msg, keys.Approve), key.Matches(msg, keys.Reject):
		return b, b.startReply(key.Matches(msg, keys.Approve))
	}
	return b, nil
}

func (b *Browser) updateReply(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		b.quitting = true
		return b, tea.Quit
	case key.Matches(msg, keys.Back):
		b.mode = modeList
		b.input.Blur()
		b.input.SetValue("")
		return b, nil
	case key.Matches(msg, keys.Submit):
		row, ok := b.selected()
		if !ok {
			b.mode = modeList
			return b, nil
		}
		content := strings.TrimSpace(b.input.Value())
		b.input.Blur()
		b.input.SetValue("")
		return b, b.decide(row.ID, b.approve, content)
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

// startReply opens the comment prompt for the selected pending row.
func (b *Browser) startReply(approve bool) tea.Cmd {
	if b.decider == nil {
		return nil
	}
	row, ok := b.selected()
	if !ok {
		return nil
	}
	if !row.Pending() {
		b.status.Warning(fmt.Sprintf("request %d is already %s", row.ID, row.StatusLabel()))
		return nil
	}
	b.approve = approve
	b.mode = modeReply
	return b.input.Focus()
}

func (b *Browser) setState(s viewmodel.ListState) {
	b.state = s
	b.rows = viewmodel.AttendanceRows(s.Items)
	rows := make([]table.Row, len(b.rows))
	for i, r := range b.rows {
		counterpart := r.Responder
		if b.who == api.WhoResponder {
			counterpart = r.Requester
		}
		rows[i] = table.Row{strconv.Itoa(r.ID), r.Title, r.Type, counterpart, r.StatusLabel(), r.Start, r.End}
	}
	b.table.SetRows(rows)
	if b.table.Cursor() >= len(rows) {
		b.table.SetCursor(0)
	}
}

func (b *Browser) selected() (viewmodel.AttendanceRow, bool) {
	i := b.table.Cursor()
	if i < 0 || i >= len(b.rows) {
		return viewmodel.AttendanceRow{}, false
	}
	return b.rows[i], true
}

// unreported keeps the errors view models do not announce themselves.
func unreported(err error) error {
	if errors.IsKind(err, errors.KindUnauthorized) || errors.IsKind(err, errors.KindCancelled) {
		return err
	}
	return nil
}

func (b *Browser) hasNext() bool {
	return b.state.Page*b.state.PageSize < b.state.Total
}

func (b *Browser) pages() int {
	if b.state.PageSize <= 0 || b.state.Total == 0 {
		return 1
	}
	return (b.state.Total + b.state.PageSize - 1) / b.state.PageSize
}
