package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the reader's keyboard bindings.
type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	Next        key.Binding
	Like        key.Binding
	FilterGenre key.Binding
	Journal     key.Binding
	ViewPath    key.Binding
	Up          key.Binding
	Down        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quitter"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Aide"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Thème suivant"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", " ", "right"),
			key.WithHelp("n/espace", "Texte suivant"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Aimer"),
		),
		FilterGenre: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Filtrer ce genre"),
		),
		Journal: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "Journal"),
		),
		ViewPath: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Parcours"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("k/↑", "Défiler"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "Défiler"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Like, k.FilterGenre, k.Journal, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Like, k.FilterGenre},
		{k.Journal, k.ViewPath, k.Up, k.Down},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
