package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

// ErrCancelled is returned when the user aborts a load with esc or ctrl+c.
var ErrCancelled = errors.New("cancelled")

// FetchDayFunc loads one day of prices.
type FetchDayFunc func(ctx context.Context, date time.Time, region string) ([]model.PricePoint, error)

type dayLoadedMsg struct {
	points []model.PricePoint
	err    error
}

type spinnerTickMsg struct{}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// loaderModel owns the fetch context; cancel aborts the in-flight request.
type loaderModel struct {
	region  string
	date    time.Time
	fetch   FetchDayFunc
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	frame   int

	points []model.PricePoint
	err    error
	done   bool
}

func newLoaderModel(region string, date time.Time, timeout time.Duration, fetch FetchDayFunc) loaderModel {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	return loaderModel{
		region:  region,
		date:    date,
		fetch:   fetch,
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
	}
}

func (m loaderModel) Init() tea.Cmd {
	ctx, fetch, date, region := m.ctx, m.fetch, m.date, m.region
	load := func() tea.Msg {
		points, err := fetch(ctx, date, region)
		return dayLoadedMsg{points: points, err: err}
	}
	return tea.Batch(load, spinnerTick())
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dayLoadedMsg:
		m.cancel()
		m.points, m.err, m.done = msg.points, msg.err, true
		if prices.IsNotPublished(m.err) {
			m.err = fmt.Errorf("prices for %s %s are not published yet", m.region, model.DateKey(m.date))
		}
		return m, tea.Quit
	case spinnerTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, spinnerTick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancel()
			m.err, m.done = ErrCancelled, true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Loading %s (%s) %s  %s\n",
		spinnerStyle.Render(spinnerFrames[m.frame]),
		m.region,
		prices.RegionName(m.region),
		model.DateKey(m.date),
		dimStyle.Render(fmt.Sprintf("%.0fs · esc to cancel", time.Since(m.started).Seconds())),
	)
}

// RunLoader shows a spinner inline while one day of prices loads. timeout
// bounds the fetch; zero means no limit.
func RunLoader(region string, date time.Time, timeout time.Duration, fetch FetchDayFunc) ([]model.PricePoint, error) {
	m := newLoaderModel(region, date, timeout, fetch)
	defer m.cancel()

	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.points, final.err
}
