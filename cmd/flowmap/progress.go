package main

import (
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// progressMsg is one loader update.
type progressMsg struct {
	stage       string
	done, total int
}

type finishedMsg struct{}

// progressModel renders a single status line for the graph loader.
type progressModel struct {
	source string
	last   progressMsg
	frame  int
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.last = msg
		m.frame++
	case finishedMsg:
		return m, tea.Quit
	}
	return m, nil
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m progressModel) View() string {
	frame := styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
	if m.last.stage == "" {
		return frame + " " + styleDim.Render("loading "+m.source) + "\n"
	}
	return frame + " " + styleDim.Render(describeProgress(m.last)) + "\n"
}

func describeProgress(p progressMsg) string {
	if p.total > 0 {
		return fmt.Sprintf("%s %d/%d (%.0f%%)", p.stage, p.done, p.total, 100*float64(p.done)/float64(p.total))
	}
	return fmt.Sprintf("%s %d", p.stage, p.done)
}

// progressView owns the bubbletea program. The program runs on its own
// goroutine and only receives messages; the pipeline never waits on it.
type progressView struct {
	p    *tea.Program
	done chan struct{}
	once sync.Once
}

func startProgress(source string) *progressView {
	v := &progressView{
		p: tea.NewProgram(progressModel{source: source},
			tea.WithOutput(os.Stderr),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(v.done)
		_, _ = v.p.Run()
	}()
	return v
}

// report matches graph.Progress.
func (v *progressView) report(stage string, done, total int) {
	v.p.Send(progressMsg{stage: stage, done: done, total: total})
}

func (v *progressView) stop() {
	v.once.Do(func() {
		v.p.Send(finishedMsg{})
		<-v.done
	})
}
