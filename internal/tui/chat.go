package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
)

// pricePaneWidth fits one table line plus its cheapest/dearest marker.
const pricePaneWidth = 42

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// AskFunc sends one question, with the loaded prices attached, and returns
// the assistant's reply.
type AskFunc func(ctx context.Context, question string) (string, error)

// ChatOptions configures RunChat.
type ChatOptions struct {
	Region  string
	Date    time.Time
	Points  []model.PricePoint
	Ask     AskFunc
	Timeout time.Duration // per question; 0 means no limit
	Now     func() time.Time // marks the current slot; nil means time.Now
}

// replyMsg is sent when an async ask completes.
type replyMsg struct {
	question string
	reply    string
	err      error
}

type turn struct {
	question string
	reply    string
	err      error
}

type chatModel struct {
	opts ChatOptions

	priceViewport viewport.Model
	chatViewport  viewport.Model
	input         textinput.Model
	activePane    int // 0=prices, 1=chat
	width         int
	height        int
	ready         bool

	turns   []turn
	pending string
	waiting bool
	frame   int

	wantQuit bool
}

func newChatModel(opts ChatOptions) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about these prices, e.g. when is power cheapest?"
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Focus()

	return chatModel{
		opts:       opts,
		input:      ti,
		activePane: 1,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case replyMsg:
		m.waiting = false
		m.pending = ""
		m.turns = append(m.turns, turn{question: msg.question, reply: msg.reply, err: msg.err})
		m.recalcContent()
		m.chatViewport.GotoBottom()
		return m, nil

	case spinnerTickMsg:
		if !m.waiting {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		m.recalcContent()
		return m, spinnerTick()

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc":
		m.wantQuit = false
		return m, tea.Quit
	case "tab":
		m.activePane = 1 - m.activePane
		return m, nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		if m.activePane == 0 {
			m.priceViewport, cmd = m.priceViewport.Update(msg)
		} else {
			m.chatViewport, cmd = m.chatViewport.Update(msg)
		}
		return m, cmd
	case "enter":
		question := strings.TrimSpace(m.input.Value())
		if question == "" || m.waiting {
			return m, nil
		}
		m.input.Reset()
		m.waiting = true
		m.pending = question
		m.recalcContent()
		m.chatViewport.GotoBottom()
		return m, tea.Batch(m.askCmd(question), spinnerTick())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) askCmd(question string) tea.Cmd {
	ask := m.opts.Ask
	timeout := m.opts.Timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		reply, err := ask(ctx, question)
		return replyMsg{question: question, reply: reply, err: err}
	}
}

func (m *chatModel) recalcLayout() {
	chatWidth := max(m.width-pricePaneWidth-5, 20)

	// Header (1) + border top/bottom (2) + input (1) + status bar (1).
	paneHeight := max(m.height-5, 5)

	if !m.ready {
		m.priceViewport = viewport.New(pricePaneWidth, paneHeight)
		m.chatViewport = viewport.New(chatWidth, paneHeight)
		m.ready = true
	} else {
		m.priceViewport.Width = pricePaneWidth
		m.priceViewport.Height = paneHeight
		m.chatViewport.Width = chatWidth
		m.chatViewport.Height = paneHeight
	}
	m.input.Width = max(m.width-4, 10)

	now := time.Now
	if m.opts.Now != nil {
		now = m.opts.Now
	}
	m.priceViewport.SetContent(RenderPriceTable(m.opts.Points, now()))
	m.recalcContent()
}

func (m *chatModel) recalcContent() {
	m.chatViewport.SetContent(m.renderTranscript(m.chatViewport.Width))
}

func (m chatModel) renderTranscript(width int) string {
	if len(m.turns) == 0 && !m.waiting {
		return dimStyle.Render(wordWrap("Questions are sent with the prices on the left attached. Nothing is remembered between questions.", width))
	}

	var b strings.Builder
	for _, t := range m.turns {
		b.WriteString(questionStyle.Render(wordWrap("you: "+t.question, width)))
		b.WriteString("\n")
		if t.err != nil {
			b.WriteString(errorStyle.Render(wordWrap("error: "+t.err.Error(), width)))
		} else {
			b.WriteString(replyStyle.Render(wordWrap(t.reply, width)))
		}
		b.WriteString("\n\n")
	}
	if m.waiting {
		b.WriteString(questionStyle.Render(wordWrap("you: "+m.pending, width)))
		b.WriteString("\n")
		b.WriteString(spinnerStyle.Render(spinnerFrames[m.frame]) + dimStyle.Render(" thinking..."))
	}
	return b.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	priceHeader := fmt.Sprintf(" %s %s", m.opts.Region, model.DateKey(m.opts.Date))
	chatHeader := fmt.Sprintf(" Chat (%d)", len(m.turns))

	var priceHeaderRendered, chatHeaderRendered string
	var priceBorder, chatBorder lipgloss.Style

	if m.activePane == 0 {
		priceHeaderRendered = activeHeaderStyle.Render(priceHeader)
		chatHeaderRendered = inactiveHeaderStyle.Render(chatHeader)
		priceBorder = activeBorderStyle.Width(m.priceViewport.Width)
		chatBorder = inactiveBorderStyle.Width(m.chatViewport.Width)
	} else {
		priceHeaderRendered = inactiveHeaderStyle.Render(priceHeader)
		chatHeaderRendered = activeHeaderStyle.Render(chatHeader)
		priceBorder = inactiveBorderStyle.Width(m.priceViewport.Width)
		chatBorder = activeBorderStyle.Width(m.chatViewport.Width)
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(m.priceViewport.Width+2).Render(priceHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(m.chatViewport.Width+2).Render(chatHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		priceBorder.Render(m.priceViewport.View()),
		" ",
		chatBorder.Render(m.chatViewport.View()),
	)

	statusText := fmt.Sprintf(" %s (%s)    Enter ask  Tab switch pane  ↑/↓ scroll  Esc back  Ctrl+C quit",
		m.opts.Region, prices.RegionName(m.opts.Region))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return lipgloss.JoinVertical(lipgloss.Left, headerRow, panes, m.input.View(), statusBar)
}

// RunChat launches the full-screen chat over one day of prices.
// Returns wantQuit=true if the user pressed ctrl+c, false if they pressed
// esc to return to the region picker.
func RunChat(opts ChatOptions) (bool, error) {
	p := tea.NewProgram(newChatModel(opts), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(chatModel)
	return final.wantQuit, nil
}
