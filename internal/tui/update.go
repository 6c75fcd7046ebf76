// pattern: Imperative Shell

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Skarian/seshmux/internal/worktree"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.busyActive() {
			var cmd tea.Cmd
			m.busySpinner, cmd = m.busySpinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case rowsLoadedMsg:
		m.rowsLoading = false
		if msg.err != nil {
			m.rowsErr = msg.err.Error()
			return m, nil
		}
		m.rows = msg.rows
		if m.rowCursor >= len(m.rows) {
			m.rowCursor = 0
		}
		return m, nil

	case candidatesLoadedMsg:
		m.candsLoading = false
		if msg.err != nil {
			m.newErr = msg.err.Error()
			return m, nil
		}
		m.candidates = msg.entries
		return m, nil

	case createDoneMsg:
		if msg.err != nil {
			m.logger.Error("create failed", "worktree", msg.name, "error", msg.err)
			m.newStep = newStepConfirm
			m.newErr = msg.err.Error()
			return m, nil
		}
		m.logger.Info("worktree created", "worktree", msg.name)
		return m, m.attachTo(msg.name)

	case sessionReadyMsg:
		if msg.err != nil {
			m.logger.Error("session setup failed", "worktree", msg.name, "error", msg.err)
			m.attachStep = attachStepConfirm
			m.rowsErr = msg.err.Error()
			return m, nil
		}
		return m, m.attachTo(msg.name)

	case deleteDoneMsg:
		m.deleteSummary = msg.summary
		if msg.err != nil {
			m.logger.Error("delete failed", "worktree", m.selectedWorktree.Name, "error", msg.err)
			m.deleteStep = deleteStepConfirm
			m.deleteErr = msg.err.Error()
			return m, nil
		}
		m.logger.Info("worktree deleted", "worktree", m.selectedWorktree.Name)
		m.deleteStep = deleteStepDone
		return m, nil

	case attachFinishedMsg:
		if msg.err != nil {
			m.logger.Error("attach failed", "error", msg.err)
			m.statusMsg = "attach failed: " + msg.err.Error()
			m.statusErr = true
		}
		m.resetToMenu()
		return m, nil

	case tea.KeyMsg:
		// Ctrl+C cancels whatever flow is active and returns to the menu.
		// It never exits the process; quitting is an explicit menu action.
		if msg.Type == tea.KeyCtrlC {
			if m.screen != screenMenu {
				m.logger.Debug("flow cancelled", "screen", int(m.screen))
				m.resetToMenu()
			}
			return m, nil
		}

		switch m.screen {
		case screenMenu:
			return m.handleMenuKey(msg)
		case screenNew:
			return m.handleNewKey(msg)
		case screenList:
			return m.handleListKey(msg)
		case screenAttach:
			return m.handleAttachKey(msg)
		case screenDelete:
			return m.handleDeleteKey(msg)
		}
	}

	return m, nil
}

// busyActive reports whether any flow is in a step that shows the spinner.
func (m Model) busyActive() bool {
	if m.rowsLoading || m.candsLoading {
		return true
	}
	switch m.screen {
	case screenNew:
		return m.newStep == newStepBusy
	case screenAttach:
		return m.attachStep == attachStepBusy
	case screenDelete:
		return m.deleteStep == deleteStepBusy
	}
	return false
}

// resetToMenu discards all flow state and shows the root menu.
func (m *Model) resetToMenu() {
	m.screen = screenMenu
	m.newStep = newStepName
	m.nameInput.SetValue("")
	m.nameInput.Blur()
	m.newErr = ""
	m.candidates = nil
	m.candsLoading = false
	m.picked = make(map[int]bool)
	m.pickerCursor = 0
	m.gitignoreOffer = false
	m.gitignoreAdd = false
	m.attachStep = attachStepSelect
	m.deleteStep = deleteStepSelect
	m.deleteErr = ""
	m.deleteSummary = nil
	m.rows = nil
	m.rowsLoading = false
	m.rowsErr = ""
	m.rowCursor = 0
	m.selectedWorktree = worktreeRow{}
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(menuEntries) {
			m.menuCursor++
		}
	case "enter":
		m.statusMsg = ""
		m.statusErr = false
		if m.menuCursor == len(menuEntries) {
			return m, tea.Quit
		}
		return m.enterScreen(menuEntries[m.menuCursor].target)
	}
	return m, nil
}

// enterScreen starts the selected flow at its first step.
func (m Model) enterScreen(target screen) (tea.Model, tea.Cmd) {
	m.screen = target
	switch target {
	case screenNew:
		m.newStep = newStepName
		m.nameInput.SetValue("")
		m.newErr = ""
		m.picked = make(map[int]bool)
		m.pickerCursor = 0
		hasEntry, err := worktree.GitignoreHasWorktrees(m.repoRoot)
		m.gitignoreOffer = err == nil && !hasEntry
		m.gitignoreAdd = m.gitignoreOffer
		return m, m.nameInput.Focus()
	case screenList, screenAttach, screenDelete:
		m.rows = nil
		m.rowsErr = ""
		m.rowsLoading = true
		m.rowCursor = 0
		m.attachStep = attachStepSelect
		m.deleteStep = deleteStepSelect
		m.deleteKill = true
		m.deleteBranch = false
		m.deleteOptCursor = 0
		m.deleteErr = ""
		m.deleteSummary = nil
		return m, tea.Batch(m.loadRows(), m.busySpinner.Tick)
	}
	return m, nil
}

func (m Model) handleNewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.newStep {
	case newStepName:
		switch msg.Type {
		case tea.KeyEscape:
			// First step: esc leaves the flow.
			m.resetToMenu()
			return m, nil
		case tea.KeyEnter:
			name := strings.TrimSpace(m.nameInput.Value())
			if err := worktree.ValidateName(name); err != nil {
				m.newErr = err.Error()
				return m, nil
			}
			if err := m.store.Available(name, worktree.Dir(m.repoRoot, name)); err != nil {
				m.newErr = err.Error()
				return m, nil
			}
			m.newErr = ""
			m.newStep = newStepExtras
			m.candsLoading = true
			m.picked = make(map[int]bool)
			m.pickerCursor = 0
			return m, tea.Batch(m.loadCandidates(), m.busySpinner.Tick)
		}
		m.newErr = ""
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd

	case newStepExtras:
		switch msg.String() {
		case "esc":
			m.newStep = newStepName
			m.newErr = ""
			m.picked = make(map[int]bool)
			return m, m.nameInput.Focus()
		case "up", "k":
			if m.pickerCursor > 0 {
				m.pickerCursor--
			}
		case "down", "j":
			if m.pickerCursor < len(m.candidates)-1 {
				m.pickerCursor++
			}
		case " ":
			if len(m.candidates) > 0 {
				m.picked[m.pickerCursor] = !m.picked[m.pickerCursor]
			}
		case "a":
			for i := range m.candidates {
				m.picked[i] = true
			}
		case "n":
			m.picked = make(map[int]bool)
		case "s":
			if m.candsLoading || len(m.candidates) == 0 {
				return m, nil
			}
			bucket := worktree.Bucket(m.candidates[m.pickerCursor])
			m.candsLoading = true
			m.picked = make(map[int]bool)
			m.pickerCursor = 0
			return m, tea.Batch(m.skipBucketForever(bucket), m.busySpinner.Tick)
		case "enter":
			if m.candsLoading {
				return m, nil
			}
			m.newStep = newStepConfirm
		}
		return m, nil

	case newStepConfirm:
		switch msg.String() {
		case "esc":
			m.newStep = newStepExtras
			m.newErr = ""
		case "g":
			if m.gitignoreOffer {
				m.gitignoreAdd = !m.gitignoreAdd
			}
		case "enter":
			m.newErr = ""
			m.newStep = newStepBusy
			return m, tea.Batch(
				m.createWorktree(
					strings.TrimSpace(m.nameInput.Value()),
					m.selectedExtras(),
					m.gitignoreOffer && m.gitignoreAdd,
				),
				m.busySpinner.Tick,
			)
		}
		return m, nil
	}

	// Busy: keys are ignored until the build finishes.
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.resetToMenu()
	case "r":
		m.rowsLoading = true
		m.rowsErr = ""
		return m, tea.Batch(m.loadRows(), m.busySpinner.Tick)
	case "up", "k":
		if m.rowCursor > 0 {
			m.rowCursor--
		}
	case "down", "j":
		if m.rowCursor < len(m.rows)-1 {
			m.rowCursor++
		}
	}
	return m, nil
}

func (m Model) handleAttachKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.attachStep {
	case attachStepSelect:
		switch msg.String() {
		case "esc":
			m.resetToMenu()
		case "up", "k":
			if m.rowCursor > 0 {
				m.rowCursor--
			}
		case "down", "j":
			if m.rowCursor < len(m.rows)-1 {
				m.rowCursor++
			}
		case "enter":
			if m.rowsLoading || len(m.rows) == 0 {
				return m, nil
			}
			row := m.rows[m.rowCursor]
			if row.Missing {
				m.rowsErr = "worktree path " + row.Path + " no longer exists"
				return m, nil
			}
			m.rowsErr = ""
			m.selectedWorktree = row
			m.attachStep = attachStepConfirm
		}
		return m, nil

	case attachStepConfirm:
		switch msg.String() {
		case "esc":
			m.attachStep = attachStepSelect
			m.rowsErr = ""
		case "enter":
			m.rowsErr = ""
			m.attachStep = attachStepBusy
			return m, tea.Batch(m.ensureSession(m.selectedWorktree), m.busySpinner.Tick)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.deleteStep {
	case deleteStepSelect:
		switch msg.String() {
		case "esc":
			m.resetToMenu()
		case "up", "k":
			if m.rowCursor > 0 {
				m.rowCursor--
			}
		case "down", "j":
			if m.rowCursor < len(m.rows)-1 {
				m.rowCursor++
			}
		case "enter":
			if m.rowsLoading || len(m.rows) == 0 {
				return m, nil
			}
			m.selectedWorktree = m.rows[m.rowCursor]
			m.deleteStep = deleteStepOptions
			m.deleteKill = true
			m.deleteBranch = false
			m.deleteOptCursor = 0
		}
		return m, nil

	case deleteStepOptions:
		switch msg.String() {
		case "esc":
			m.deleteStep = deleteStepSelect
		case "up", "k":
			if m.deleteOptCursor > 0 {
				m.deleteOptCursor--
			}
		case "down", "j":
			if m.deleteOptCursor < 1 {
				m.deleteOptCursor++
			}
		case " ":
			if m.deleteOptCursor == 0 {
				m.deleteKill = !m.deleteKill
			} else {
				m.deleteBranch = !m.deleteBranch
			}
		case "enter":
			m.deleteStep = deleteStepConfirm
		}
		return m, nil

	case deleteStepConfirm:
		switch msg.String() {
		case "esc":
			m.deleteStep = deleteStepOptions
			m.deleteErr = ""
		case "enter":
			m.deleteErr = ""
			m.deleteStep = deleteStepBusy
			return m, tea.Batch(
				m.deleteWorktree(m.selectedWorktree, m.deleteKill, m.deleteBranch),
				m.busySpinner.Tick,
			)
		}
		return m, nil

	case deleteStepDone:
		switch msg.String() {
		case "enter", "esc":
			m.statusMsg = "deleted worktree " + m.selectedWorktree.Name
			m.resetToMenu()
		}
		return m, nil
	}

	// Busy: keys are ignored until the teardown finishes.
	return m, nil
}

// selectedExtras returns the picked candidate entries in display order.
func (m Model) selectedExtras() []string {
	var extras []string
	for i, entry := range m.candidates {
		if m.picked[i] {
			extras = append(extras, entry)
		}
	}
	return extras
}
