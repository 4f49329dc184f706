package cmd

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type initModel struct {
	inputs   []textinput.Model
	focusIdx int
	canceled bool
	done     bool
}

func initialInitModel() initModel {
	launcherInput := textinput.New()
	launcherInput.Placeholder = "mpirun"
	launcherInput.Focus()
	launcherInput.CharLimit = 32
	launcherInput.Width = 20

	ranksInput := textinput.New()
	ranksInput.Placeholder = "4"
	ranksInput.CharLimit = 6
	ranksInput.Width = 20

	dirInput := textinput.New()
	dirInput.Placeholder = "./storage"
	dirInput.CharLimit = 128
	dirInput.Width = 40

	return initModel{
		inputs: []textinput.Model{launcherInput, ranksInput, dirInput},
	}
}

func (m initModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			m.done = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "tab", "shift+tab", "down", "up":
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIdx--
			} else {
				m.focusIdx++
			}
			if m.focusIdx >= len(m.inputs) {
				m.focusIdx = 0
			} else if m.focusIdx < 0 {
				m.focusIdx = len(m.inputs) - 1
			}
			for i := range m.inputs {
				if i == m.focusIdx {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m initModel) View() string {
	s := "\n"
	labels := []string{"Launcher command", "Rank count", "Results directory"}

	for i, input := range m.inputs {
		s += labels[i] + ": " + input.View() + "\n"
	}

	s += "\n[Enter] to continue • [Esc] to cancel\n"
	return s
}

// RunInitTUI collects the launcher, rank count and results directory
// for a starter suite file. Empty answers fall back to the
// placeholders.
func RunInitTUI() (launcher, ranks, directory string, canceled bool) {
	p := tea.NewProgram(initialInitModel())
	m, err := p.Run()
	if err != nil {
		return "", "", "", true
	}

	final := m.(initModel)
	if final.canceled {
		return "", "", "", true
	}

	launcher = final.inputs[0].Value()
	if launcher == "" {
		launcher = "mpirun"
	}

	ranks = final.inputs[1].Value()
	if ranks == "" {
		ranks = "4"
	}

	directory = final.inputs[2].Value()
	if directory == "" {
		directory = "./storage"
	}

	return launcher, ranks, directory, false
}
