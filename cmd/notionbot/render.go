// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/notion"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// statusLine renders "✓ message" or "✗ message", with an optional
// dimmed detail on the next line.
func statusLine(ok bool, message, detail string) string {
	line := failStyle.Render("✗") + " " + message
	if ok {
		line = okStyle.Render("✓") + " " + message
	}
	if detail != "" {
		line += "\n  " + detailStyle.Render(detail)
	}
	return line
}

func newTable(out io.Writer) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.SetStyle(table.StyleLight)
	writer.Style().Format.Header = text.FormatDefault
	writer.Style().Format.Footer = text.FormatDefault
	return writer
}

// renderGuildTable lists guild rows. Keys are shown by fingerprint
// only.
func renderGuildTable(out io.Writer, guilds []guildconfig.GuildConfig) {
	writer := newTable(out)
	writer.AppendHeader(table.Row{"Guild ID", "Name", "Registered by", "Key", "Database", "Ready", "Updated"})
	for _, guild := range guilds {
		ready := text.FgRed.Sprint("no")
		if guild.IsComplete() {
			ready = text.FgGreen.Sprint("yes")
		}
		writer.AppendRow(table.Row{
			guild.GuildID,
			guild.GuildName,
			valueOr(guild.DiscordUserID, "-"),
			valueOr(guildconfig.Fingerprint(guild.NotionAPIKey), "-"),
			valueOr(guild.NotionDatabaseID, "-"),
			ready,
			guild.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	writer.AppendFooter(table.Row{fmt.Sprintf("%d guilds", len(guilds))})
	writer.Render()
}

func renderTaskTable(out io.Writer, tasks []notion.Task) {
	writer := newTable(out)
	writer.AppendHeader(table.Row{"Title", "Status", "Priority", "Assignee", "Due", "Tags", "Created"})
	for _, task := range tasks {
		writer.AppendRow(table.Row{
			task.Title,
			pointerOr(task.Status, "-"),
			pointerOr(task.Priority, "-"),
			pointerOr(task.Assignee, "-"),
			pointerOr(task.DueDate, "-"),
			strings.Join(task.Tags, ", "),
			task.CreatedTime.Local().Format(time.DateOnly),
		})
	}
	writer.AppendFooter(table.Row{fmt.Sprintf("%d tasks", len(tasks))})
	writer.Render()
}

// renderMarkdown renders advice for the terminal. style is a glamour
// standard style name; "auto" picks one from the terminal background.
func renderMarkdown(markdown, style string, width int) (string, error) {
	styleOption := glamour.WithStandardStyle(style)
	if style == "auto" {
		styleOption = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(styleOption, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return renderer.Render(markdown)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func pointerOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return valueOr(*value, fallback)
}
