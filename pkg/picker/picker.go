// Package picker is an interactive terminal chooser for the input file, used
// when the command line names none.
package picker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zurustar/midicurve/pkg/fileutil"
)

// ErrCancelled is returned when the user leaves without choosing.
var ErrCancelled = errors.New("no file selected")

// ErrNoCandidates is returned when the directory holds no input files.
var ErrNoCandidates = errors.New("no event log or MIDI files found")

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
)

// Candidates lists the files of dir that can be baked, sorted by name.
func Candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if fileutil.IsSMF(e.Name()) || fileutil.Ext(e.Name()) == ".csv" || fileutil.Ext(e.Name()) == ".txt" {
			files = append(files, e.Name())
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})
	return files, nil
}

// Model is the bubbletea model of the chooser.
type Model struct {
	dir      string
	files    []string
	cursor   int
	chosen   string
	quitting bool
}

// NewModel creates a chooser over files found in dir.
func NewModel(dir string, files []string) Model {
	return Model{dir: dir, files: files}
}

// Init implements tea.Model. The chooser needs no startup command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model: j/k or arrows move, enter or space selects,
// q, esc or ctrl+c cancel.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "j", "down":
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.files) > 0 {
			m.chosen = filepath.Join(m.dir, m.files[m.cursor])
		}
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model. It renders nothing once the chooser has quit.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Select a MIDI CSV or MIDI file"))
	b.WriteString("\n\n")
	for i, f := range m.files {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + f))
		} else {
			b.WriteString("  " + f)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("j/k move, enter select, q quit"))
	return b.String()
}

// Chosen returns the selected path, "" if none.
func (m Model) Chosen() string {
	return m.chosen
}

// Run shows the chooser for dir and returns the selected path.
func Run(dir string) (string, error) {
	files, err := Candidates(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoCandidates, dir)
	}
	final, err := tea.NewProgram(NewModel(dir, files)).Run()
	if err != nil {
		return "", fmt.Errorf("file chooser failed: %w", err)
	}
	chosen := final.(Model).Chosen()
	if chosen == "" {
		return "", ErrCancelled
	}
	return chosen, nil
}
