package finder

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/stdland/pkg/types"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	rowStyle      = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("86")).
			Background(lipgloss.Color("236"))
	nameStyle  = lipgloss.NewStyle().Bold(true)
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// iconStyle colors an item type's glyph, using the dark variant on dark
// terminals
func iconStyle(t types.ItemType) lipgloss.Style {
	icon := types.IconFor(t)
	return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: icon.Color,
		Dark:  icon.DarkColor,
	})
}
