package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	User    lipgloss.Style
	Bot     lipgloss.Style
	Error   lipgloss.Style
	Prompt  lipgloss.Style
	Spinner lipgloss.Style
	Help    lipgloss.Style
	Title   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		User:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Bot:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Title:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")),
	}
}
