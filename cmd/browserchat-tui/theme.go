package main

import (
	"github.com/charmbracelet/lipgloss"

	"browserchat/internal/transcript"
)

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	title       lipgloss.Style
	online      lipgloss.Style
	offline     lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	example     lipgloss.Style
	exampleKey  lipgloss.Style
	modalFrame  lipgloss.Style
	modalPick   lipgloss.Style
	modalAccent lipgloss.Style

	roleLabel map[transcript.Role]lipgloss.Style
	kindBody  map[transcript.Kind]lipgloss.Style

	productName lipgloss.Style
	productMeta lipgloss.Style
	productLink lipgloss.Style
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	gold := lipgloss.Color("#ffd166")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		title:   lipgloss.NewStyle().Foreground(mint).Bold(true),
		online:  lipgloss.NewStyle().Foreground(mint).Bold(true),
		offline: lipgloss.NewStyle().Foreground(pink).Bold(true),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(lipgloss.Color("#22062f")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText:   lipgloss.NewStyle().Foreground(muted),
		example:    lipgloss.NewStyle().Foreground(text),
		exampleKey: lipgloss.NewStyle().Foreground(gold).Bold(true),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		modalPick:   lipgloss.NewStyle().Foreground(pink).Bold(true),
		modalAccent: lipgloss.NewStyle().Foreground(mint).Bold(true),
		roleLabel: map[transcript.Role]lipgloss.Style{
			transcript.RoleUser:   lipgloss.NewStyle().Foreground(mint).Bold(true),
			transcript.RoleAgent:  lipgloss.NewStyle().Foreground(blue).Bold(true),
			transcript.RoleSystem: lipgloss.NewStyle().Foreground(muted).Bold(true),
			transcript.RoleError:  lipgloss.NewStyle().Foreground(pink).Bold(true),
		},
		kindBody: map[transcript.Kind]lipgloss.Style{
			transcript.KindPlain:      lipgloss.NewStyle().Foreground(text),
			transcript.KindStatus:     lipgloss.NewStyle().Foreground(muted).Italic(true),
			transcript.KindAction:     lipgloss.NewStyle().Foreground(gold),
			transcript.KindCompletion: lipgloss.NewStyle().Foreground(mint).Bold(true),
			transcript.KindResult:     lipgloss.NewStyle().Foreground(text),
			transcript.KindProducts:   lipgloss.NewStyle().Foreground(mint).Bold(true),
			transcript.KindFormResult: lipgloss.NewStyle().Foreground(mint),
			transcript.KindError:      lipgloss.NewStyle().Foreground(pink),
		},
		productName: lipgloss.NewStyle().Foreground(text).Bold(true),
		productMeta: lipgloss.NewStyle().Foreground(gold),
		productLink: lipgloss.NewStyle().Foreground(blue).Underline(true),
	}
}

func (t uiTheme) labelStyle(role transcript.Role) lipgloss.Style {
	if style, ok := t.roleLabel[role]; ok {
		return style
	}
	return t.roleLabel[transcript.RoleSystem]
}

func (t uiTheme) bodyStyle(kind transcript.Kind) lipgloss.Style {
	if style, ok := t.kindBody[kind]; ok {
		return style
	}
	return t.kindBody[transcript.KindPlain]
}
