package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Pick runs one menu over a fixed item list and blocks until the user
// selects an entry or backs out.
func Pick(title string, items []Item, toggle *Toggle) (Selection, error) {
	m := NewModel(title, items, toggle)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return Selection{Aborted: true}, err
	}
	out := final.(Model)
	if out.loadErr != nil {
		return out.selection, out.loadErr
	}
	return out.selection, nil
}

// PickAsync runs one menu whose items are produced by load while a
// spinner plays. A load error aborts the menu and is returned.
func PickAsync(title, loadingNote string, load func() ([]Item, error)) (Selection, error) {
	m := NewLoadingModel(title, loadingNote)
	p := tea.NewProgram(m)

	go func() {
		items, err := load()
		if err != nil {
			p.Send(LoadErrorMsg{Err: err})
			return
		}
		p.Send(ItemsMsg{Items: items})
	}()

	final, err := p.Run()
	if err != nil {
		return Selection{Aborted: true}, err
	}
	out := final.(Model)
	if out.loadErr != nil {
		return out.selection, out.loadErr
	}
	return out.selection, nil
}
