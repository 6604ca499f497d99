package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/priceask/internal/prices"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

type pickerModel struct {
	regions []string
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func newPickerModel(regions []string, initial string) pickerModel {
	m := pickerModel{regions: regions, chosen: -1}
	for i, r := range regions {
		if r == initial {
			m.cursor = i
		}
	}
	return m
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.regions)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Power prices: select a bidding zone")
	s += "\n"

	for i, r := range m.regions {
		label := fmt.Sprintf("%s  %s", r, prices.RegionName(r))
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunRegionPicker shows an interactive bidding zone selector with the cursor
// on initial. Returns the chosen region, or "" if the user quit.
func RunRegionPicker(regions []string, initial string) (string, error) {
	p := tea.NewProgram(newPickerModel(regions, initial))
	result, err := p.Run()
	if err != nil {
		return "", err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return "", nil
	}
	return final.regions[final.chosen], nil
}
