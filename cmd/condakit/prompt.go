package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// question is one workspace detail asked for interactively.
type question struct {
	Key    string
	Prompt string
	// Default is used when the answer is left empty.
	Default string
	// Optional questions may be skipped with an empty answer.
	Optional bool
}

func (q question) required() bool {
	return !q.Optional && q.Default == ""
}

// promptModel walks through the questions one at a time. Enter moves to
// the next question unless a required answer is missing.
type promptModel struct {
	questions []question
	inputs    []textinput.Model
	current   int
	missing   bool
	done      bool
}

func newPromptModel(questions []question) promptModel {
	m := promptModel{questions: questions, inputs: make([]textinput.Model, len(questions))}
	for i, q := range questions {
		in := textinput.New()
		in.CharLimit = 512
		if q.Default != "" {
			in.Placeholder = q.Default
		}
		m.inputs[i] = in
	}
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.advance()
		}
	}
	m.missing = false
	var cmd tea.Cmd
	m.inputs[m.current], cmd = m.inputs[m.current].Update(msg)
	return m, cmd
}

// advance accepts the current answer and focuses the next question, or
// finishes after the last one.
func (m promptModel) advance() (tea.Model, tea.Cmd) {
	if m.questions[m.current].required() && strings.TrimSpace(m.inputs[m.current].Value()) == "" {
		m.missing = true
		return m, nil
	}
	m.missing = false
	m.inputs[m.current].Blur()
	if m.current == len(m.inputs)-1 {
		m.done = true
		return m, tea.Quit
	}
	m.current++
	m.inputs[m.current].Focus()
	return m, textinput.Blink
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.current]
	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d] %s", m.current+1, len(m.questions), q.Prompt)
	switch {
	case q.Default != "":
		fmt.Fprintf(&b, " (enter keeps %s)", q.Default)
	case q.Optional:
		b.WriteString(" (optional, enter to skip)")
	}
	fmt.Fprintf(&b, ": %s\n", m.inputs[m.current].View())
	if m.missing {
		b.WriteString("  a value is required\n")
	}
	return b.String()
}

// answers returns the trimmed answers keyed by question, with defaults
// filled in for empty ones.
func (m promptModel) answers() map[string]string {
	out := make(map[string]string, len(m.questions))
	for i, q := range m.questions {
		v := strings.TrimSpace(m.inputs[i].Value())
		if v == "" {
			v = q.Default
		}
		out[q.Key] = v
	}
	return out
}

// promptQuestions runs the prompt and returns answers keyed by question.Key.
func promptQuestions(ctx context.Context, questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	result, err := tea.NewProgram(newPromptModel(questions), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	return final.answers(), nil
}
