package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/reconcile"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// noteLog keeps session notifications for the status line.
type noteLog struct {
	mu      sync.Mutex
	entries []note
}

type note struct {
	kind    reconcile.NotifyKind
	message string
}

func newNoteLog() *noteLog { return &noteLog{} }

func (n *noteLog) Notify(kind reconcile.NotifyKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, note{kind: kind, message: message})
}

func (n *noteLog) last() (note, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.entries) == 0 {
		return note{}, false
	}
	return n.entries[len(n.entries)-1], true
}

var editFields = []struct {
	name  string
	label string
}{
	{reconcile.FieldDescription, "Description"},
	{reconcile.FieldQuantity, "Quantity"},
	{reconcile.FieldUnitCost, "Unit cost"},
	{reconcile.FieldUnitPrice, "Unit price"},
	{reconcile.FieldNotes, "Notes"},
	{reconcile.FieldEquipment, "Equipment"},
}

func fieldText(d reconcile.Draft, field string) string {
	switch field {
	case reconcile.FieldDescription:
		return d.Description
	case reconcile.FieldNotes:
		return d.Notes
	case reconcile.FieldEquipment:
		return d.EquipmentLabel
	case reconcile.FieldQuantity:
		return d.Quantity.String()
	case reconcile.FieldUnitCost:
		return nullText(d.UnitCost)
	case reconcile.FieldUnitPrice:
		return nullText(d.UnitPrice)
	}
	return ""
}

func nullText(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return n.Decimal.String()
}

type editorKeys struct {
	Up       key.Binding
	Down     key.Binding
	Add      key.Binding
	Edit     key.Binding
	Item     key.Binding
	Save     key.Binding
	Cancel   key.Binding
	Delete   key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Quit     key.Binding
}

func defaultEditorKeys() editorKeys {
	return editorKeys{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Item:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "catalog item")),
		Save:     key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "save")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "discard")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		MoveUp:   key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k editorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Item, k.Save, k.Cancel, k.Delete, k.MoveUp, k.MoveDown, k.Quit}
}

func (k editorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, k.ShortHelp()}
}

type editorMode int

const (
	modeBrowse editorMode = iota
	modeField
	modeItem
)

// opDoneMsg reports a finished store round trip.
type opDoneMsg struct {
	op  string
	key string
	err error
}

// lineEditor is an interactive view over one reconcile session.
type lineEditor struct {
	ctx      context.Context
	session  *reconcile.Session
	notes    *noteLog
	title    string
	keys     editorKeys
	help     help.Model
	input    textinput.Model
	mode     editorMode
	field    int
	cursor   int
	err      error
	quitting bool
}

func newLineEditor(ctx context.Context, s *reconcile.Session, notes *noteLog, title string) *lineEditor {
	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = 500
	in.Cursor.SetMode(cursor.CursorStatic)
	return &lineEditor{
		ctx:     ctx,
		session: s,
		notes:   notes,
		title:   title,
		keys:    defaultEditorKeys(),
		help:    help.New(),
		input:   in,
	}
}

func runLineEditor(ctx context.Context, m *lineEditor) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

func (m *lineEditor) Init() tea.Cmd { return nil }

func (m *lineEditor) current() (reconcile.RowView, bool) {
	rows := m.session.Rows()
	if len(rows) == 0 {
		return reconcile.RowView{}, false
	}
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return rows[m.cursor], true
}

func (m *lineEditor) cursorTo(key string) {
	for i, r := range m.session.Rows() {
		if r.Key == key {
			m.cursor = i
			return
		}
	}
}

func (m *lineEditor) startField(i int) {
	row, ok := m.current()
	if !ok {
		return
	}
	m.mode = modeField
	m.field = i
	m.input.SetValue(fieldText(row.Draft, editFields[i].name))
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *lineEditor) leaveInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
}

// applyField writes the input into the current field of the focused row.
func (m *lineEditor) applyField() bool {
	row, ok := m.current()
	if !ok {
		return false
	}
	if err := m.session.SetField(row.Key, editFields[m.field].name, m.input.Value()); err != nil {
		m.err = err
		return false
	}
	m.err = nil
	return true
}

func (m *lineEditor) run(op, key string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, key: key, err: fn(ctx)}
	}
}

func (m *lineEditor) saveCmd(key string) tea.Cmd {
	return func() tea.Msg {
		v, err := m.session.Save(m.ctx, key)
		if err == nil {
			key = v.Key
		}
		return opDoneMsg{op: "save", key: key, err: err}
	}
}

func (m *lineEditor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case opDoneMsg:
		m.err = msg.err
		if msg.err == nil && msg.op == "save" {
			m.cursorTo(msg.key)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeField:
			return m.updateField(msg)
		case modeItem:
			return m.updateItem(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *lineEditor) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.cursor--
		if row, ok := m.current(); ok {
			_ = m.session.Focus(row.Key)
		}

	case key.Matches(msg, m.keys.Down):
		m.cursor++
		if row, ok := m.current(); ok {
			_ = m.session.Focus(row.Key)
		}

	case key.Matches(msg, m.keys.Add):
		m.cursorTo(m.session.AddLine())
		m.err = nil
		m.startField(0)

	case key.Matches(msg, m.keys.Edit):
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		if err := m.session.BeginEdit(row.Key); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.startField(0)

	case key.Matches(msg, m.keys.Item):
		if _, ok := m.current(); ok {
			m.mode = modeItem
			m.input.SetValue("")
			m.input.Focus()
		}

	case key.Matches(msg, m.keys.Save):
		if row, ok := m.current(); ok {
			return m, m.saveCmd(row.Key)
		}

	case key.Matches(msg, m.keys.Cancel):
		if row, ok := m.current(); ok {
			m.err = m.session.Cancel(row.Key)
		}

	case key.Matches(msg, m.keys.Delete):
		if row, ok := m.current(); ok {
			return m, m.run("delete", row.Key, func(ctx context.Context) error {
				return m.session.Delete(ctx, row.Key)
			})
		}

	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		target := m.cursor - 1
		if key.Matches(msg, m.keys.MoveDown) {
			target = m.cursor + 1
		}
		if target < 0 {
			return m, nil
		}
		m.cursor = target
		return m, m.run("move", row.Key, func(ctx context.Context) error {
			return m.session.Move(ctx, row.Key, target)
		})
	}
	return m, nil
}

func (m *lineEditor) updateField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.leaveInput()
		return m, nil

	case tea.KeyTab:
		if m.applyField() {
			m.startField((m.field + 1) % len(editFields))
		}
		return m, nil

	case tea.KeyCtrlS:
		if !m.applyField() {
			return m, nil
		}
		row, _ := m.current()
		m.leaveInput()
		return m, m.saveCmd(row.Key)

	case tea.KeyEnter:
		if !m.applyField() {
			return m, nil
		}
		if m.field+1 < len(editFields) {
			m.startField(m.field + 1)
			return m, nil
		}
		row, _ := m.current()
		m.leaveInput()
		return m, m.saveCmd(row.Key)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *lineEditor) updateItem(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.leaveInput()
		return m, nil
	case tea.KeyEnter:
		row, ok := m.current()
		itemID := strings.TrimSpace(m.input.Value())
		m.leaveInput()
		if !ok || itemID == "" {
			return m, nil
		}
		return m, m.run("bind", row.Key, func(ctx context.Context) error {
			return m.session.SelectCatalogItem(ctx, row.Key, itemID)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *lineEditor) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(formatter.Header("Lines " + m.title))
	b.WriteString("\n")

	rows := m.session.Rows()
	if len(rows) == 0 {
		b.WriteString(formatter.Dim("No line items. Press a to add one.") + "\n")
	} else {
		table := make([][]string, 0, len(rows))
		for i, r := range rows {
			pointer := " "
			if i == m.cursor {
				pointer = formatter.StyleHeader.Render("›")
			}
			cost, price := "--", "--"
			if r.Draft.UnitCost.Valid {
				cost = formatter.Money(r.Draft.UnitCost.Decimal)
			}
			if r.Draft.UnitPrice.Valid {
				price = formatter.Money(r.Draft.UnitPrice.Decimal)
			}
			desc := r.Draft.Description
			if r.Err != nil {
				desc += " " + formatter.StyleRed.Render(r.Err.Error())
			}
			table = append(table, []string{
				pointer + formatter.RowStateMarker(r.State, r.Err != nil),
				fmt.Sprintf("%d", i+1),
				desc,
				formatter.Quantity(r.Draft.Quantity),
				cost,
				price,
				formatter.Money(r.LineTotal),
			})
		}
		b.WriteString(formatter.RenderTable([]string{"", "#", "DESCRIPTION", "QTY", "COST", "PRICE", "TOTAL"}, table, 3, 4, 5, 6))
	}
	b.WriteString(formatter.FormatTotals(m.session.Totals()))

	switch m.mode {
	case modeField:
		fmt.Fprintf(&b, "\n%s %s\n", formatter.Bold(editFields[m.field].label+":"), m.input.View())
	case modeItem:
		fmt.Fprintf(&b, "\n%s %s\n", formatter.Bold("Catalog item ID:"), m.input.View())
	}

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "\n%s\n", formatter.StyleRed.Render(m.err.Error()))
	default:
		if n, ok := m.notes.last(); ok {
			style := formatter.StyleDim
			if n.kind == reconcile.NotifyError {
				style = formatter.StyleYellow
			}
			fmt.Fprintf(&b, "\n%s\n", style.Render(n.message))
		}
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
