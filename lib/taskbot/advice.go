// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/notionbot/lib/llm"
	"github.com/bureau-foundation/notionbot/lib/notion"
)

// DefaultMaxTokens bounds advice length when Advisor.MaxTokens is not
// positive.
const DefaultMaxTokens = 1024

// ErrNoAdvisor is returned by Advisor methods when no provider is
// configured.
var ErrNoAdvisor = errors.New("taskbot: no LLM provider configured")

// Advisor asks an LLM for project-management advice about a set of
// tasks. A nil *Advisor, or one without a Provider, is disabled.
type Advisor struct {
	Provider  llm.Provider
	Model     string
	MaxTokens int
}

// Enabled reports whether advice requests can be made.
func (advisor *Advisor) Enabled() bool {
	return advisor != nil && advisor.Provider != nil
}

// AdviseAssignee asks for action items on one assignee's tasks.
func (advisor *Advisor) AdviseAssignee(ctx context.Context, assignee string, tasks []notion.Task) (string, error) {
	return advisor.complete(ctx, AssigneePrompt(assignee, tasks))
}

// AdviseWeek asks for next steps on the tasks due this week.
func (advisor *Advisor) AdviseWeek(ctx context.Context, tasks []notion.Task) (string, error) {
	return advisor.complete(ctx, WeekPrompt(tasks))
}

func (advisor *Advisor) complete(ctx context.Context, prompt string) (string, error) {
	if !advisor.Enabled() {
		return "", ErrNoAdvisor
	}
	maxTokens := advisor.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	response, err := advisor.Provider.Complete(ctx, llm.Request{
		Model:     advisor.Model,
		Messages:  []llm.Message{llm.UserMessage(prompt)},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("taskbot: requesting advice: %w", err)
	}
	text := strings.TrimSpace(response.Text())
	if text == "" {
		return "", errors.New("taskbot: advisor returned an empty response")
	}
	return text, nil
}

// AssigneePrompt builds the prompt for [Advisor.AdviseAssignee].
func AssigneePrompt(assignee string, tasks []notion.Task) string {
	return fmt.Sprintf("Tasks for %s:\n%s\nAs a project manager, provide action items:",
		assignee, promptLines(tasks))
}

// WeekPrompt builds the prompt for [Advisor.AdviseWeek].
func WeekPrompt(tasks []notion.Task) string {
	return fmt.Sprintf("Tasks due this week:\n%s\nAs a PM, suggest next steps:", promptLines(tasks))
}

func promptLines(tasks []notion.Task) string {
	lines := make([]string, len(tasks))
	for i, task := range tasks {
		lines[i] = fmt.Sprintf("%d. %s | Due: %s | Assignee: %s",
			i+1, task.Title, valueOr(task.DueDate, "-"), valueOr(task.Assignee, "-"))
	}
	return strings.Join(lines, "\n")
}

func valueOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
