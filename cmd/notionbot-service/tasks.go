// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/session"
)

const (
	defaultTaskStatus   = "Not Started"
	defaultTaskPriority = "Medium"
)

// handleTestNotion checks credentials without storing them.
func (s *server) handleTestNotion(w http.ResponseWriter, r *http.Request, user session.User) {
	var body struct {
		APIKey     string `json:"apiKey"`
		DatabaseID string `json:"databaseId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "test-notion", err)
		return
	}
	apiKey := strings.TrimSpace(body.APIKey)
	databaseID := notion.NormalizeID(body.DatabaseID)
	if apiKey == "" || databaseID == "" {
		s.writeError(w, r, "test-notion", invalidRequest("apiKey and databaseId are required."))
		return
	}
	result, err := s.testConnection(r.Context(), apiKey, databaseID)
	if err != nil {
		s.writeError(w, r, "test-notion", err)
		return
	}
	writeData(w, http.StatusOK, result)
}

// handleListTasks lists the guild's tasks, or returns the single task
// named by taskId with its description read from the page body.
func (s *server) handleListTasks(w http.ResponseWriter, r *http.Request, user session.User) {
	query := r.URL.Query()
	guildID := query.Get("guildId")
	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, guildID); err != nil {
		s.writeError(w, r, "list-tasks", err)
		return
	}
	client, err := s.guildClient(ctx, guildID)
	if err != nil {
		s.writeError(w, r, "list-tasks", err)
		return
	}

	if taskID := strings.TrimSpace(query.Get("taskId")); taskID != "" {
		task, err := client.GetTask(ctx, taskID)
		if err != nil {
			s.writeError(w, r, "get-task", err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"task": task})
		return
	}

	var filters []notion.Filter
	if status := strings.TrimSpace(query.Get("status")); status != "" {
		filters = append(filters, notion.StatusEquals(status))
	}
	if assignee := strings.TrimSpace(query.Get("assignee")); assignee != "" {
		filters = append(filters, notion.AssigneeContains(assignee))
	}
	tasks, err := client.GetTasks(ctx, notion.And(filters...))
	if err != nil {
		s.writeError(w, r, "list-tasks", err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

type taskBody struct {
	GuildID  string           `json:"guildId"`
	TaskID   string           `json:"taskId"`
	TaskData notion.TaskInput `json:"taskData"`
}

func (s *server) handleCreateTask(w http.ResponseWriter, r *http.Request, user session.User) {
	var body taskBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "create-task", err)
		return
	}
	input := body.TaskData
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		s.writeError(w, r, "create-task", invalidRequest("taskData.title is required."))
		return
	}
	if err := validateDueDate(input.DueDate); err != nil {
		s.writeError(w, r, "create-task", err)
		return
	}
	if input.Status == nil {
		input.Status = stringPointer(defaultTaskStatus)
	}
	if input.Priority == nil {
		input.Priority = stringPointer(defaultTaskPriority)
	}

	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, body.GuildID); err != nil {
		s.writeError(w, r, "create-task", err)
		return
	}
	client, err := s.guildClient(ctx, body.GuildID)
	if err != nil {
		s.writeError(w, r, "create-task", err)
		return
	}
	task, err := client.CreateTask(ctx, input)
	if err != nil {
		s.writeError(w, r, "create-task", err)
		return
	}
	s.logger.Info("task created", "guild_id", body.GuildID, "user_id", user.ID, "task_id", task.ID)
	writeData(w, http.StatusCreated, task)
}

func (s *server) handleUpdateTask(w http.ResponseWriter, r *http.Request, user session.User) {
	var body taskBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "update-task", err)
		return
	}
	if body.TaskID == "" {
		s.writeError(w, r, "update-task", invalidRequest("taskId is required."))
		return
	}
	if title := body.TaskData.Title; title != nil && strings.TrimSpace(*title) == "" {
		s.writeError(w, r, "update-task", invalidRequest("taskData.title cannot be empty."))
		return
	}
	if err := validateDueDate(body.TaskData.DueDate); err != nil {
		s.writeError(w, r, "update-task", err)
		return
	}

	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, body.GuildID); err != nil {
		s.writeError(w, r, "update-task", err)
		return
	}
	client, err := s.guildClient(ctx, body.GuildID)
	if err != nil {
		s.writeError(w, r, "update-task", err)
		return
	}
	task, err := client.UpdateTask(ctx, body.TaskID, body.TaskData)
	if err != nil {
		s.writeError(w, r, "update-task", err)
		return
	}
	writeData(w, http.StatusOK, task)
}

// handleDeleteTask archives the page; Notion has no hard delete.
func (s *server) handleDeleteTask(w http.ResponseWriter, r *http.Request, user session.User) {
	query := r.URL.Query()
	guildID, taskID := query.Get("guildId"), query.Get("taskId")
	if taskID == "" {
		s.writeError(w, r, "delete-task", invalidRequest("taskId is required."))
		return
	}
	ctx := r.Context()
	if err := s.authorizeGuild(ctx, user, guildID); err != nil {
		s.writeError(w, r, "delete-task", err)
		return
	}
	client, err := s.guildClient(ctx, guildID)
	if err != nil {
		s.writeError(w, r, "delete-task", err)
		return
	}
	if err := client.DeleteTask(ctx, taskID); err != nil {
		s.writeError(w, r, "delete-task", err)
		return
	}
	s.logger.Info("task archived", "guild_id", guildID, "user_id", user.ID, "task_id", taskID)
	writeData(w, http.StatusOK, map[string]string{"taskId": taskID})
}

// validateDueDate accepts a calendar date or an RFC 3339 timestamp,
// the two forms Notion stores.
func validateDueDate(due *string) error {
	if due == nil {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, *due); err == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, *due); err == nil {
		return nil
	}
	return invalidRequest("taskData.dueDate %q must be YYYY-MM-DD or an RFC 3339 timestamp.", *due)
}

func stringPointer(value string) *string { return &value }
