// pattern: Imperative Shell

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the TUI.
func (m Model) View() string {
	var content string
	switch m.screen {
	case screenMenu:
		content = m.renderMenu()
	case screenNew:
		content = m.renderNewFlow()
	case screenList:
		content = m.renderList()
	case screenAttach:
		content = m.renderAttachFlow()
	case screenDelete:
		content = m.renderDeleteFlow()
	}

	header := m.styles.TitleStyle().Render("seshmux")
	subtitle := m.styles.SubtitleStyle().Render(m.repoRoot)
	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, content)
}

func (m Model) renderMenu() string {
	var b strings.Builder
	for i, entry := range menuEntries {
		b.WriteString(m.menuLine(i, entry.label))
		b.WriteString("\n")
	}
	b.WriteString(m.menuLine(len(menuEntries), "Quit"))

	parts := []string{b.String()}
	if m.statusMsg != "" {
		style := m.styles.SuccessStyle()
		if m.statusErr {
			style = m.styles.ErrorStyle()
		}
		parts = append(parts, style.Render(m.statusMsg))
	}
	parts = append(parts, m.styles.HelpStyle().Render("↑/↓ move · enter select · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) menuLine(index int, label string) string {
	if index == m.menuCursor {
		return m.styles.SelectedStyle().Render("▸ " + label)
	}
	return m.styles.InfoStyle().Render("  " + label)
}

func (m Model) renderNewFlow() string {
	switch m.newStep {
	case newStepName:
		parts := []string{
			m.styles.AccentStyle().Render("Name the new worktree"),
			m.nameInput.View(),
		}
		if m.newErr != "" {
			parts = append(parts, m.styles.ErrorStyle().Render(m.newErr))
		}
		parts = append(parts, m.styles.HelpStyle().Render("enter continue · esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case newStepExtras:
		if m.candsLoading {
			return m.busyLine("scanning for untracked files")
		}
		parts := []string{m.styles.AccentStyle().Render("Copy untracked files into the worktree?")}
		if len(m.candidates) == 0 {
			parts = append(parts, m.styles.DimStyle().Render("nothing to copy"))
		}
		for i, entry := range m.candidates {
			mark := "[ ]"
			if m.picked[i] {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s %s", mark, entry)
			if i == m.pickerCursor {
				line = m.styles.SelectedStyle().Render("▸ " + line)
			} else {
				line = m.styles.InfoStyle().Render("  " + line)
			}
			parts = append(parts, line)
		}
		if m.newErr != "" {
			parts = append(parts, m.styles.ErrorStyle().Render(m.newErr))
		}
		parts = append(parts, m.styles.HelpStyle().Render("space toggle · a all · n none · s always skip · enter continue · esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case newStepConfirm:
		name := strings.TrimSpace(m.nameInput.Value())
		lines := []string{
			m.styles.AccentStyle().Render("Create this worktree?"),
			fmt.Sprintf("  name:    %s", name),
			fmt.Sprintf("  extras:  %d item(s)", len(m.selectedExtras())),
			fmt.Sprintf("  windows: %d", len(m.cfg.Tmux.Windows)),
		}
		help := "enter create and attach · esc back"
		if m.gitignoreOffer {
			mark := "[ ]"
			if m.gitignoreAdd {
				mark = "[x]"
			}
			lines = append(lines, fmt.Sprintf("  %s add worktrees/ to .gitignore", mark))
			help = "enter create and attach · g toggle .gitignore · esc back"
		}
		if m.newErr != "" {
			lines = append(lines, m.styles.ErrorStyle().Render(m.newErr))
		}
		lines = append(lines, m.styles.HelpStyle().Render(help))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	return m.busyLine("building worktree and session")
}

func (m Model) renderList() string {
	if m.rowsLoading {
		return m.busyLine("loading worktrees")
	}
	if m.rowsErr != "" {
		return m.styles.ErrorStyle().Render(m.rowsErr)
	}

	parts := []string{m.rowTable(false)}
	parts = append(parts, m.styles.HelpStyle().Render("r refresh · esc back"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderAttachFlow() string {
	switch m.attachStep {
	case attachStepSelect:
		if m.rowsLoading {
			return m.busyLine("loading worktrees")
		}
		parts := []string{m.styles.AccentStyle().Render("Attach to which worktree?"), m.rowTable(true)}
		if m.rowsErr != "" {
			parts = append(parts, m.styles.ErrorStyle().Render(m.rowsErr))
		}
		parts = append(parts, m.styles.HelpStyle().Render("enter select · esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case attachStepConfirm:
		action := "switch to the running session"
		if !m.selectedWorktree.SessionLive {
			action = "start the session and attach"
		}
		parts := []string{
			m.styles.AccentStyle().Render(fmt.Sprintf("Attach to %s?", m.selectedWorktree.Name)),
			m.styles.InfoStyle().Render("  " + action),
		}
		if m.rowsErr != "" {
			parts = append(parts, m.styles.ErrorStyle().Render(m.rowsErr))
		}
		parts = append(parts, m.styles.HelpStyle().Render("enter attach · esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	return m.busyLine("preparing session")
}

func (m Model) renderDeleteFlow() string {
	switch m.deleteStep {
	case deleteStepSelect:
		if m.rowsLoading {
			return m.busyLine("loading worktrees")
		}
		parts := []string{m.styles.AccentStyle().Render("Delete which worktree?"), m.rowTable(true)}
		if m.rowsErr != "" {
			parts = append(parts, m.styles.ErrorStyle().Render(m.rowsErr))
		}
		parts = append(parts, m.styles.HelpStyle().Render("enter select · esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case deleteStepOptions:
		options := []struct {
			label string
			on    bool
		}{
			{"kill tmux session", m.deleteKill},
			{"delete branch", m.deleteBranch},
		}
		parts := []string{m.styles.AccentStyle().Render(fmt.Sprintf("Deleting %s", m.selectedWorktree.Name))}
		for i, opt := range options {
			mark := "[ ]"
			if opt.on {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s %s", mark, opt.label)
			if i == m.deleteOptCursor {
				line = m.styles.SelectedStyle().Render("▸ " + line)
			} else {
				line = m.styles.InfoStyle().Render("  " + line)
			}
			parts = append(parts, line)
		}
		parts = append(parts, m.styles.HelpStyle().Render("space toggle · enter continue · esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case deleteStepConfirm:
		lines := []string{
			m.styles.WarnStyle().Render(fmt.Sprintf("Really delete %s?", m.selectedWorktree.Name)),
			m.styles.InfoStyle().Render("  path: " + m.selectedWorktree.Path),
		}
		if m.deleteKill {
			lines = append(lines, m.styles.InfoStyle().Render("  the tmux session will be killed"))
		}
		if m.deleteBranch {
			lines = append(lines, m.styles.InfoStyle().Render("  the branch will be deleted"))
		}
		if m.deleteErr != "" {
			lines = append(lines, m.styles.ErrorStyle().Render(m.deleteErr))
		}
		lines = append(lines, m.styles.HelpStyle().Render("enter delete · esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)

	case deleteStepDone:
		parts := []string{m.styles.SuccessStyle().Render("Done")}
		for _, line := range m.deleteSummary {
			parts = append(parts, m.styles.InfoStyle().Render("  "+line))
		}
		parts = append(parts, m.styles.HelpStyle().Render("enter back to menu"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	return m.busyLine("tearing down worktree")
}

// rowTable renders the reconciled worktree rows. With a cursor it doubles as
// the selection list for the attach and delete flows.
func (m Model) rowTable(withCursor bool) string {
	if len(m.rows) == 0 {
		return m.styles.DimStyle().Render("no worktrees registered")
	}

	var b strings.Builder
	header := fmt.Sprintf("  %-*s %-10s %-17s %s", m.nameColWidth(), "NAME", "BRANCH", "CREATED", "SESSION")
	b.WriteString(m.styles.DimStyle().Render(header))
	b.WriteString("\n")

	for i, row := range m.rows {
		branch := row.Branch
		if row.Missing {
			branch = "MISSING"
		}
		session := "-"
		if row.SessionLive {
			session = "● live"
		}
		prefix := "  "
		if withCursor && i == m.rowCursor {
			prefix = "▸ "
		}

		// Pad before styling; ANSI escapes would throw off column widths.
		line := fmt.Sprintf("%s%-*s %-10s %-17s %s",
			prefix, m.nameColWidth(), row.Name, branch,
			row.CreatedAt.Local().Format("2006-01-02 15:04"), session)

		style := m.styles.InfoStyle()
		switch {
		case withCursor && i == m.rowCursor:
			style = m.styles.SelectedStyle()
		case row.Missing:
			style = m.styles.WarnStyle()
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) nameColWidth() int {
	width := 8
	for _, row := range m.rows {
		if len(row.Name) > width {
			width = len(row.Name)
		}
	}
	return width
}

func (m Model) busyLine(message string) string {
	return m.busySpinner.View() + " " + m.styles.InfoStyle().Render(message)
}
