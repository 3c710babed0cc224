package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"swipeable/internal/swipe"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#bac2de"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	lockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#1e1e2e")).Bold(true)
)

func (m model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "measuring..."
	}
	if len(m.swatches) == 0 {
		return statusStyle.Render("no swatches configured") + "\n"
	}

	rows := m.height - 2
	if rows < 1 {
		rows = 1
	}
	mid := rows / 2

	var b strings.Builder
	for r := 0; r < rows; r++ {
		b.WriteString(m.renderRow(r == mid))
		b.WriteByte('\n')
	}
	b.WriteString(m.renderStatus())
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render("drag or click an edge to swipe  ←/→ scroll  1-9 jump  q quit"))
	return b.String()
}

// slotAt returns which item, relative to the current one, covers column c.
func (m model) slotAt(c int) int {
	shift := m.view.offset / m.cellPx
	return int(math.Floor((float64(c) - shift) / float64(m.width)))
}

// renderRow draws one row of the strip. Consecutive columns of the same item
// are rendered as a single styled run.
func (m model) renderRow(withLabel bool) string {
	var b strings.Builder
	shift := m.view.offset / m.cellPx

	start := 0
	for start < m.width {
		slot := m.slotAt(start)
		end := start + 1
		for end < m.width && m.slotAt(end) == slot {
			end++
		}

		idx := swipe.WrapIndex(m.state.Index+slot, len(m.swatches))
		run := []rune(strings.Repeat(" ", end-start))
		if withLabel {
			// Centre the label on the item, even when the centre is off screen.
			label := []rune(fmt.Sprintf(" %d ", idx+1))
			itemLeft := float64(slot*m.width) + shift
			at := int(math.Round(itemLeft+float64(m.width)/2)) - len(label)/2 - start
			for i, r := range label {
				if p := at + i; p >= 0 && p < len(run) {
					run[p] = r
				}
			}
		}

		style := labelStyle.Background(lipgloss.Color(m.swatches[idx]))
		b.WriteString(style.Render(string(run)))
		start = end
	}
	return b.String()
}

func (m model) renderStatus() string {
	line := fmt.Sprintf("item %d/%d  %s  offset %+.0fpx  %s",
		m.state.Index+1, m.state.ItemCount, m.state.Phase, m.view.offset, m.status)
	out := statusStyle.Render(line)
	if m.view.preventScroll {
		out += "  " + lockStyle.Render("scroll locked")
	}
	return out
}
