package app

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the TUI bindings. It implements help.KeyMap.
type keyMap struct {
	Submit    key.Binding
	Cancel    key.Binding
	Copy      key.Binding
	Example   key.Binding
	NextModel key.Binding
	PrevModel key.Binding
	TempUp    key.Binding
	TempDown  key.Binding
	TokensUp  key.Binding
	TokensDn  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// maxTokensStep is the max-tokens change per key press.
const maxTokensStep = 16

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Example:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "example")),
		NextModel: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next model")),
		PrevModel: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prev model")),
		TempUp:    key.NewBinding(key.WithKeys("alt+up"), key.WithHelp("alt+↑", "temperature +0.1")),
		TempDown:  key.NewBinding(key.WithKeys("alt+down"), key.WithHelp("alt+↓", "temperature -0.1")),
		TokensUp:  key.NewBinding(key.WithKeys("alt+right"), key.WithHelp("alt+→", "max tokens +16")),
		TokensDn:  key.NewBinding(key.WithKeys("alt+left"), key.WithHelp("alt+←", "max tokens -16")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.NextModel, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Cancel, k.Copy, k.Example},
		{k.NextModel, k.PrevModel, k.TempUp, k.TempDown},
		{k.TokensUp, k.TokensDn, k.Help, k.Quit},
	}
}
