// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/bureau-foundation/notionbot/lib/notion"
)

func TestTestNotion(t *testing.T) {
	fake := newFixture(t)
	cookie := fake.login(t, testAccessToken)

	var result notion.ConnectionResult
	expectData(t, fake.do(t, request{
		method: http.MethodPost,
		path:   "/api/notion/test",
		cookie: cookie,
		body:   map[string]string{"apiKey": testNotionKey, "databaseId": testDatabaseID},
	}), http.StatusOK, &result)
	if !result.Success || result.Database.Title != "Sprint Board" {
		t.Errorf("result = %+v", result)
	}

	expectError(t, fake.do(t, request{
		method: http.MethodPost,
		path:   "/api/notion/test",
		cookie: cookie,
		body:   map[string]string{"apiKey": testNotionKey},
	}), http.StatusBadRequest, "validation-error")

	fake.notion.err = &notion.Error{Code: notion.CodeNotFound, StatusCode: http.StatusNotFound, ResourceID: testDatabaseID}
	errBody := expectError(t, fake.do(t, request{
		method: http.MethodPost,
		path:   "/api/notion/test",
		cookie: cookie,
		body:   map[string]string{"apiKey": testNotionKey, "databaseId": testDatabaseID},
	}), http.StatusNotFound, string(notion.CodeNotFound))
	if details, _ := errBody.Details.(map[string]any); details["resourceId"] != testDatabaseID {
		t.Errorf("details = %#v", errBody.Details)
	}
}

func TestListTasks(t *testing.T) {
	fake := newFixture(t)
	fake.configure(t, managedGuild, "user-1")
	fake.notion.tasks = []notion.Task{{ID: "t1", Title: "One"}, {ID: "t2", Title: "Two"}}
	cookie := fake.login(t, testAccessToken)

	var result struct {
		Tasks []notion.Task `json:"tasks"`
		Count int           `json:"count"`
	}
	expectData(t, fake.do(t, request{
		method: http.MethodGet,
		path:   "/api/notion/tasks?guildId=" + managedGuild + "&status=Done&assignee=notion-user-1",
		cookie: cookie,
	}), http.StatusOK, &result)
	if result.Count != 2 || len(result.Tasks) != 2 {
		t.Errorf("result = %+v", result)
	}
	want := notion.And(notion.StatusEquals("Done"), notion.AssigneeContains("notion-user-1"))
	if len(fake.notion.filters) != 1 || !reflect.DeepEqual(fake.notion.filters[0], want) {
		t.Errorf("filter = %#v, want %#v", fake.notion.filters, want)
	}

	expectData(t, fake.do(t, request{
		method: http.MethodGet,
		path:   "/api/notion/tasks?guildId=" + managedGuild,
		cookie: cookie,
	}), http.StatusOK, nil)
	if fake.notion.filters[1] != nil {
		t.Errorf("unfiltered listing sent filter %#v", fake.notion.filters[1])
	}
}

func TestListTasks_SingleTask(t *testing.T) {
	fake := newFixture(t)
	fake.configure(t, managedGuild, "user-1")
	fake.notion.tasks = []notion.Task{{ID: "t1", Title: "One"}, {ID: "t2", Title: "Two"}}
	cookie := fake.login(t, testAccessToken)

	var result struct {
		Task notion.Task `json:"task"`
	}
	expectData(t, fake.do(t, request{
		method: http.MethodGet,
		path:   "/api/notion/tasks?guildId=" + managedGuild + "&taskId=t2",
		cookie: cookie,
	}), http.StatusOK, &result)
	if result.Task.ID != "t2" || result.Task.Title != "Two" {
		t.Errorf("task = %+v", result.Task)
	}
	if len(fake.notion.filters) != 0 {
		t.Errorf("single-task fetch ran a query: %v", fake.notion.filters)
	}

	expectError(t, fake.do(t, request{
		method: http.MethodGet,
		path:   "/api/notion/tasks?guildId=" + managedGuild + "&taskId=missing",
		cookie: cookie,
	}), http.StatusNotFound, string(notion.CodeNotFound))
	if !reflect.DeepEqual(fake.notion.fetched, []string{"t2", "missing"}) {
		t.Errorf("fetched = %v", fake.notion.fetched)
	}
}

func TestListTasks_NotConfigured(t *testing.T) {
	fake := newFixture(t)
	expectError(t, fake.do(t, request{
		method: http.MethodGet,
		path:   "/api/notion/tasks?guildId=" + managedGuild,
		cookie: fake.login(t, testAccessToken),
	}), http.StatusBadRequest, "notion-not-configured")
}

func TestCreateTask(t *testing.T) {
	fake := newFixture(t)
	fake.configure(t, managedGuild, "user-1")
	cookie := fake.login(t, testAccessToken)

	var task notion.Task
	expectData(t, fake.do(t, request{
		method: http.MethodPost,
		path:   "/api/notion/tasks",
		cookie: cookie,
		body: map[string]any{
			"guildId":  managedGuild,
			"taskData": map[string]any{"title": "Plan sprint", "dueDate": "2026-03-06", "tags": []string{"planning"}},
		},
	}), http.StatusCreated, &task)
	if task.Title != "Plan sprint" {
		t.Errorf("task = %+v", task)
	}

	if len(fake.notion.created) != 1 {
		t.Fatalf("created %d tasks", len(fake.notion.created))
	}
	input := fake.notion.created[0]
	if *input.Status != defaultTaskStatus || *input.Priority != defaultTaskPriority {
		t.Errorf("defaults not applied: status=%v priority=%v", *input.Status, *input.Priority)
	}
	if input.Tags == nil || len(*input.Tags) != 1 {
		t.Errorf("tags = %v", input.Tags)
	}

	tests := []struct {
		name     string
		taskData map[string]any
	}{
		{"missing title", map[string]any{"status": "Done"}},
		{"blank title", map[string]any{"title": "   "}},
		{"bad due date", map[string]any{"title": "x", "dueDate": "next friday"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expectError(t, fake.do(t, request{
				method: http.MethodPost,
				path:   "/api/notion/tasks",
				cookie: cookie,
				body:   map[string]any{"guildId": managedGuild, "taskData": test.taskData},
			}), http.StatusBadRequest, "validation-error")
		})
	}
	if len(fake.notion.created) != 1 {
		t.Errorf("invalid input reached Notion: %d creates", len(fake.notion.created))
	}
}

func TestUpdateTask(t *testing.T) {
	fake := newFixture(t)
	fake.configure(t, managedGuild, "user-1")
	cookie := fake.login(t, testAccessToken)

	expectData(t, fake.do(t, request{
		method: http.MethodPatch,
		path:   "/api/notion/tasks",
		cookie: cookie,
		body: map[string]any{
			"guildId":  managedGuild,
			"taskId":   "page-7",
			"taskData": map[string]any{"status": "Done"},
		},
	}), http.StatusOK, nil)
	input, ok := fake.notion.updated["page-7"]
	if !ok || input.Status == nil || *input.Status != "Done" {
		t.Fatalf("updated = %+v", fake.notion.updated)
	}
	if input.Title != nil || input.Priority != nil {
		t.Errorf("update carried fields that were not sent: %+v", input)
	}

	expectError(t, fake.do(t, request{
		method: http.MethodPatch,
		path:   "/api/notion/tasks",
		cookie: cookie,
		body:   map[string]any{"guildId": managedGuild, "taskData": map[string]any{"status": "Done"}},
	}), http.StatusBadRequest, "validation-error")
}

func TestDeleteTask(t *testing.T) {
	fake := newFixture(t)
	fake.configure(t, managedGuild, "user-1")
	cookie := fake.login(t, testAccessToken)

	expectData(t, fake.do(t, request{
		method: http.MethodDelete,
		path:   "/api/notion/tasks?guildId=" + managedGuild + "&taskId=page-9",
		cookie: cookie,
	}), http.StatusOK, nil)
	if len(fake.notion.deleted) != 1 || fake.notion.deleted[0] != "page-9" {
		t.Errorf("deleted = %v", fake.notion.deleted)
	}

	expectError(t, fake.do(t, request{
		method: http.MethodDelete,
		path:   "/api/notion/tasks?guildId=" + unmanagedGuild + "&taskId=page-9",
		cookie: cookie,
	}), http.StatusForbidden, "forbidden")
}
