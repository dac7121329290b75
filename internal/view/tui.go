// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loadingStyles struct {
	title   lipgloss.Style
	done    lipgloss.Style
	active  lipgloss.Style
	pending lipgloss.Style
	err     lipgloss.Style
	hint    lipgloss.Style
}

func newLoadingStyles() loadingStyles {
	return loadingStyles{
		title:   lipgloss.NewStyle().Bold(true).MarginBottom(1),
		done:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		active:  lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true),
		pending: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
	}
}

// loadingDoneMsg ends the program once the chain has returned.
type loadingDoneMsg struct{ err error }

// LoadingModel renders the loading screen as a bubbletea program.
type LoadingModel struct {
	spinner spinner.Model
	styles  loadingStyles
	state   LoadingState
	cancel  context.CancelFunc
	done    bool
	err     error
}

// NewLoadingModel returns a model that calls cancel when the user quits.
func NewLoadingModel(cancel context.CancelFunc) LoadingModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	styles := newLoadingStyles()
	s.Style = styles.active
	return LoadingModel{spinner: s, styles: styles, cancel: cancel}
}

func (m LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m LoadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case LoadingState:
		m.state = msg
	case loadingDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m LoadingModel) View() string {
	var b strings.Builder
	if m.state.Error != "" {
		b.WriteString(m.styles.err.Render("Analysis failed"))
		b.WriteString("\n")
		b.WriteString(m.state.Error)
		b.WriteString("\n")
		if !m.done {
			b.WriteString(m.styles.hint.Render("returning to the start screen..."))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(m.styles.title.Render("Analyzing your idea"))
	b.WriteString("\n")
	for i, step := range LoadingSteps {
		switch {
		case i < m.state.Step:
			b.WriteString(m.styles.done.Render("✓ " + step.Label))
		case i == m.state.Step && !m.done:
			b.WriteString(m.spinner.View() + " " + m.styles.active.Render(step.Label))
		default:
			b.WriteString(m.styles.pending.Render("· " + step.Label))
		}
		b.WriteString("\n")
	}
	if c := m.state.Collection; c != nil && m.state.Step <= lastCollectStep {
		b.WriteString(m.styles.hint.Render(fmt.Sprintf("collection %d%%", c.Progress)))
		b.WriteString("\n")
	}
	if !m.done {
		b.WriteString(m.styles.hint.Render("press q to cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

// RunWithTUI runs fn while a bubbletea program renders a's loading screen.
// Quitting the program cancels the context passed to fn.
func RunWithTUI(ctx context.Context, a *Analyzer, fn func(ctx context.Context) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewLoadingModel(cancel), opts...)

	prev := a.OnChange
	a.OnChange = func(s LoadingState) {
		p.Send(s)
		if prev != nil {
			prev(s)
		}
	}
	defer func() { a.OnChange = prev }()

	errc := make(chan error, 1)
	go func() {
		err := fn(ctx)
		p.Send(loadingDoneMsg{err: err})
		errc <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("running loading screen: %w", err)
	}
	return <-errc
}
