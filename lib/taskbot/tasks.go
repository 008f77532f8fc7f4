// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/notionbot/lib/notion"
)

func (dispatcher *Dispatcher) addTask(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	input, err := ParseTaskOptions(invocation.Options)
	if err != nil {
		return Reply{}, err
	}
	task, err := client.CreateTask(ctx, input)
	if err != nil {
		return Reply{}, err
	}

	content := fmt.Sprintf("✅ Task added: **%s**", task.Title)
	if task.URL != "" {
		content += "\n" + task.URL
	}
	return public(content), nil
}

// ParseTaskOptions builds a TaskInput from addtask options. Empty
// options are absent. Tags are comma separated.
func ParseTaskOptions(options map[string]string) (notion.TaskInput, error) {
	title := strings.TrimSpace(options[OptionTitle])
	if title == "" {
		return notion.TaskInput{}, invalidInput("A task title is required.")
	}
	input := notion.TaskInput{
		Title:       &title,
		Description: optional(options[OptionDescription]),
		Status:      optional(options[OptionStatus]),
		Priority:    optional(options[OptionPriority]),
		Assignee:    optional(options[OptionAssignee]),
	}
	if due := optional(options[OptionDue]); due != nil {
		if _, err := time.Parse(time.DateOnly, *due); err != nil {
			return notion.TaskInput{}, invalidInput("The due date %q is not in YYYY-MM-DD format.", *due)
		}
		input.DueDate = due
	}
	if raw := options[OptionTags]; raw != "" {
		var tags []string
		for tag := range strings.SplitSeq(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		if len(tags) > 0 {
			input.Tags = &tags
		}
	}
	return input, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func (dispatcher *Dispatcher) assignee(invocation Invocation) string {
	if name := strings.TrimSpace(invocation.Options[OptionAssignee]); name != "" {
		return name
	}
	return invocation.UserName
}

func (dispatcher *Dispatcher) myTasks(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	assignee := dispatcher.assignee(invocation)
	tasks, err := client.GetTasks(ctx, notion.StatusNotEquals(notion.StatusDone))
	if err != nil {
		return Reply{}, err
	}

	selected := OpenTasksFor(tasks, assignee, dispatcher.location)
	lines := make([]string, len(selected))
	for i, task := range selected {
		lines[i] = fmt.Sprintf("%d. %s | Status: %s | Due: %s",
			i+1, task.Title, valueOr(task.Status, "-"), valueOr(task.DueDate, "-"))
	}
	return public(withHeader(fmt.Sprintf("📋 Open tasks for **%s**:", assignee), lines, "• No tasks found")), nil
}

func (dispatcher *Dispatcher) dueTasks(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	assignee := strings.TrimSpace(invocation.Options[OptionAssignee])
	tasks, err := client.GetTasks(ctx, notion.StatusNotEquals(notion.StatusDone))
	if err != nil {
		return Reply{}, err
	}

	now := dispatcher.clock.Now().In(dispatcher.location)
	selected := DueWithin(tasks, now, now.Add(DueSoonWindow), assignee, dispatcher.location)
	lines := make([]string, len(selected))
	for i, task := range selected {
		lines[i] = fmt.Sprintf("• %s | Assignee: %s | Due: %s",
			task.Title, valueOr(task.Assignee, "-"), valueOr(task.DueDate, "-"))
	}
	header := "📋 Tasks due in the next 3 days:"
	if assignee != "" {
		header = fmt.Sprintf("📋 Tasks for **%s** due in the next 3 days:", assignee)
	}
	return public(withHeader(header, lines, "• No matching tasks")), nil
}

func (dispatcher *Dispatcher) advise(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	if !dispatcher.advisor.Enabled() {
		return Reply{}, ErrNoAdvisor
	}
	assignee := dispatcher.assignee(invocation)
	tasks, err := client.GetTasks(ctx, notion.StatusNotEquals(notion.StatusDone))
	if err != nil {
		return Reply{}, err
	}

	header := fmt.Sprintf("📊 Task advice for **%s**:", assignee)
	selected := OpenTasksFor(tasks, assignee, dispatcher.location)
	if len(selected) == 0 {
		return public(header + "\n• No tasks found"), nil
	}
	advice, err := dispatcher.advisor.AdviseAssignee(ctx, assignee, selected)
	if err != nil {
		return Reply{}, err
	}
	return public(header + "\n" + advice), nil
}

func (dispatcher *Dispatcher) weekProgress(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	monday := WeekStart(dispatcher.clock.Now().In(dispatcher.location))
	tasks, err := client.GetTasks(ctx, notion.CreatedOnOrAfter(monday))
	if err != nil {
		return Reply{}, err
	}

	var selected []notion.Task
	for _, task := range tasks {
		if !task.CreatedTime.Before(monday) {
			selected = append(selected, task)
		}
	}
	SortByCreated(selected)
	lines := make([]string, len(selected))
	for i, task := range selected {
		lines[i] = fmt.Sprintf("%d. %s | Created: %s",
			i+1, task.Title, task.CreatedTime.In(dispatcher.location).Format("2006-01-02 15:04"))
	}
	return public(withHeader("📅 Tasks created this week:", lines, "• No tasks")), nil
}

func (dispatcher *Dispatcher) weekAdvise(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	if !dispatcher.advisor.Enabled() {
		return Reply{}, ErrNoAdvisor
	}
	now := dispatcher.clock.Now().In(dispatcher.location)
	monday, sunday := WeekStart(now), WeekEnd(now)
	tasks, err := client.GetTasks(ctx, notion.And(
		notion.StatusNotEquals(notion.StatusDone),
		notion.DueBetween(monday, sunday),
	))
	if err != nil {
		return Reply{}, err
	}

	header := "📈 Advice for tasks due this week:"
	selected := DueWithin(tasks, monday, sunday, "", dispatcher.location)
	if len(selected) == 0 {
		return public(header + "\n• No tasks"), nil
	}
	advice, err := dispatcher.advisor.AdviseWeek(ctx, selected)
	if err != nil {
		return Reply{}, err
	}
	return public(header + "\n" + advice), nil
}

// listAssignees shows the assignee of each of the first ListLimit
// tasks. It does not rank by frequency.
func (dispatcher *Dispatcher) listAssignees(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	return dispatcher.listFirst(ctx, client, "👥 Top 10 assignees:", func(task notion.Task) *string { return task.Assignee })
}

// listStatus shows the status of each of the first ListLimit tasks.
func (dispatcher *Dispatcher) listStatus(ctx context.Context, client NotionClient, invocation Invocation) (Reply, error) {
	return dispatcher.listFirst(ctx, client, "🔖 Top 10 statuses:", func(task notion.Task) *string { return task.Status })
}

func (dispatcher *Dispatcher) listFirst(ctx context.Context, client NotionClient, header string, field func(notion.Task) *string) (Reply, error) {
	tasks, err := client.GetTasks(ctx, nil)
	if err != nil {
		return Reply{}, err
	}
	if len(tasks) > ListLimit {
		tasks = tasks[:ListLimit]
	}
	lines := make([]string, len(tasks))
	for i, task := range tasks {
		lines[i] = fmt.Sprintf("**%d**. %s", i+1, valueOr(field(task), "-"))
	}
	return public(withHeader(header, lines, "None")), nil
}

func withHeader(header string, lines []string, empty string) string {
	if len(lines) == 0 {
		return header + "\n" + empty
	}
	return header + "\n" + strings.Join(lines, "\n")
}
