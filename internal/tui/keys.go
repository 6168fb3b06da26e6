package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle  key.Binding
	Reset   key.Binding
	Skip    key.Binding
	New     key.Binding
	Delete  key.Binding
	Done    key.Binding
	Current key.Binding
	Filter  key.Binding
	Export  key.Binding
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Tab4    key.Binding
	Tab     key.Binding
	Help    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Quit    key.Binding
}

// keys is the single binding set; views match against it directly.
var keys = keyMap{
	Toggle:  key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s/space", "start/pause")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Skip:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "skip break")),
	New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Done:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done/undo")),
	Current: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "focus on task")),
	Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
	Tab1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "timer")),
	Tab2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "tasks")),
	Tab3:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "stats")),
	Tab4:    key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "settings")),
	Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "shorter range")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "longer range")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Skip, k.New, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset, k.Skip},
		{k.New, k.Done, k.Current, k.Delete, k.Filter},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Export},
		{k.Up, k.Down, k.Left, k.Right, k.Back, k.Quit},
	}
}
