package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Skarian/seshmux/internal/config"
	"github.com/Skarian/seshmux/internal/logging"
	"github.com/Skarian/seshmux/internal/registry"
	"github.com/Skarian/seshmux/internal/tmux"
	"github.com/Skarian/seshmux/internal/worktree"
)

// screen identifies the active top-level view.
type screen int

const (
	screenMenu screen = iota
	screenNew
	screenList
	screenAttach
	screenDelete
)

// newStep is the active step of the create flow.
type newStep int

const (
	newStepName newStep = iota
	newStepExtras
	newStepConfirm
	newStepBusy
)

// attachStep is the active step of the attach flow.
type attachStep int

const (
	attachStepSelect attachStep = iota
	attachStepConfirm
	attachStepBusy
)

// deleteStep is the active step of the delete flow.
type deleteStep int

const (
	deleteStepSelect deleteStep = iota
	deleteStepOptions
	deleteStepConfirm
	deleteStepBusy
	deleteStepDone
)

// worktreeRow is one registry record reconciled against git and tmux.
type worktreeRow struct {
	Name        string
	Path        string
	Branch      string
	CreatedAt   time.Time
	Missing     bool
	SessionLive bool
}

// menuEntry is one root menu action.
type menuEntry struct {
	label  string
	target screen
}

var menuEntries = []menuEntry{
	{"New worktree", screenNew},
	{"List worktrees", screenList},
	{"Attach session", screenAttach},
	{"Delete worktree", screenDelete},
}

// Model represents the TUI application state.
type Model struct {
	width  int
	height int
	styles *Styles
	logger *logging.ScopedLogger

	cfg      *config.Config
	store    *registry.Store
	git      *worktree.Git
	sessions *tmux.Client
	repoRoot string

	screen     screen
	menuCursor int
	statusMsg  string
	statusErr  bool

	// registry rows shared by the list/attach/delete screens
	rows        []worktreeRow
	rowsLoading bool
	rowsErr     string
	rowCursor   int

	// create flow
	newStep        newStep
	nameInput      textinput.Model
	newErr         string
	candidates     []string
	candsLoading   bool
	picked         map[int]bool
	pickerCursor   int
	gitignoreOffer bool
	gitignoreAdd   bool

	// attach flow
	attachStep attachStep

	// delete flow
	deleteStep       deleteStep
	deleteKill       bool
	deleteBranch     bool
	deleteOptCursor  int
	deleteErr        string
	deleteSummary    []string
	selectedWorktree worktreeRow

	busySpinner spinner.Model
}

// NewModel creates a new TUI model rooted at the given repository.
func NewModel(
	cfg *config.Config,
	store *registry.Store,
	git *worktree.Git,
	sessions *tmux.Client,
	repoRoot string,
	logs logging.LoggerProvider,
) Model {
	styles := NewStyles(cfg.Theme)

	nameInput := textinput.New()
	nameInput.Placeholder = "worktree name"
	nameInput.CharLimit = worktree.MaxNameLength
	nameInput.Prompt = "> "

	busy := spinner.New()
	busy.Spinner = spinner.MiniDot
	busy.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.flavor.Teal().Hex))

	return Model{
		styles:      styles,
		logger:      logs.For("tui"),
		cfg:         cfg,
		store:       store,
		git:         git,
		sessions:    sessions,
		repoRoot:    repoRoot,
		screen:      screenMenu,
		nameInput:   nameInput,
		picked:      make(map[int]bool),
		busySpinner: busy,
	}
}

// Init returns the initial command to run.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// sessionWindows maps the configured window specs to tmux windows. The
// config was validated at startup, so a failing spec here is a bug.
func sessionWindows(cfg *config.Config) ([]tmux.Window, error) {
	windows := make([]tmux.Window, 0, len(cfg.Tmux.Windows))
	for _, spec := range cfg.Tmux.Windows {
		launch, err := spec.Launch()
		if err != nil {
			return nil, err
		}
		windows = append(windows, tmux.Window{Name: spec.Name, Argv: launch.Argv()})
	}
	return windows, nil
}
