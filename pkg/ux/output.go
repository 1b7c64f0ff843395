// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the cmsfleet CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title    lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Command  lipgloss.Style
	Prompt   lipgloss.Style
	HostName lipgloss.Style
	Box      lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:     lipgloss.NewStyle().Bold(true),
	Muted:    lipgloss.NewStyle().Foreground(ColorSlate),
	Success:  lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:  lipgloss.NewStyle().Foreground(ColorWarning),
	Error:    lipgloss.NewStyle().Foreground(ColorError),
	Command:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Prompt:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealDeep),
	HostName: lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

var (
	out   io.Writer = os.Stdout
	outMu sync.Mutex
)

// SetOutput redirects all ux output. It returns the previous writer so
// tests can restore it.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

// Output returns the current ux writer.
func Output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

func printf(format string, args ...any) {
	fmt.Fprintf(Output(), format, args...)
}

// Command echoes a command line before it runs, shell-prompt style:
//
//	$ ssh -i ~/.ssh/id cms@10.0.0.2 'screen -list'
func Command(line string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine, PersonalityMinimal:
		printf("$ %s\n", line)
	default:
		printf("%s %s\n", Styles.Prompt.Render("$"), Styles.Command.Render(line))
	}
}

// Host prints a header naming the host the next commands target.
func Host(name, address string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf("# %s %s\n", name, address)
	default:
		printf("%s %s %s\n", IconArrow.Render(), Styles.HostName.Render(name), Styles.Muted.Render(address))
	}
}

// Success prints a success message with checkmark
func Success(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf("OK: %s\n", text)
	case PersonalityMinimal:
		printf("%s %s\n", IconSuccess.Render(), text)
	default:
		printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func Warning(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf("WARN: %s\n", text)
	case PersonalityMinimal:
		printf("%s %s\n", IconWarning.Render(), text)
	default:
		printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func Error(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf("ERROR: %s\n", text)
	case PersonalityMinimal:
		printf("%s %s\n", IconError.Render(), text)
	default:
		printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func Info(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf("%s\n", text)
	default:
		printf("%s %s\n", Styles.Muted.Render("│"), text)
	}
}

// Box prints text in a rounded box
func Box(title, content string) {
	if GetPersonalityLevel() == PersonalityMachine {
		printf("%s: %s\n", title, content)
		return
	}
	titleLine := Styles.Title.Render(title)
	printf("%s\n", Styles.Box.Render(titleLine+"\n"+content))
}

// Summary prints a batch summary line with counts
func Summary(succeeded, failed, total int) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf("SUMMARY: succeeded=%d failed=%d total=%d\n", succeeded, failed, total)
	default:
		failedStyle := Styles.Muted
		if failed > 0 {
			failedStyle = Styles.Error
		}
		printf("%s %s  %s %s  %s %s\n",
			Styles.Success.Render(fmt.Sprintf("%d", succeeded)), Styles.Muted.Render("succeeded"),
			failedStyle.Render(fmt.Sprintf("%d", failed)), Styles.Muted.Render("failed"),
			Styles.Bold.Render(fmt.Sprintf("%d", total)), Styles.Muted.Render("hosts"),
		)
	}
}

// Table prints rows under headers. Machine output is tab-separated with
// the header line first.
func Table(headers []string, rows [][]string) {
	if GetPersonalityLevel() == PersonalityMachine {
		printf("%s\n", strings.Join(headers, "\t"))
		for _, row := range rows {
			printf("%s\n", strings.Join(row, "\t"))
		}
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorTealDeep)).
		Headers(headers...).
		Rows(rows...)
	printf("%s\n", t.String())
}
