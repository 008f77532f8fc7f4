// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import "time"

// Conventional option names for the Status and Priority select
// properties. Notion select options are user-defined, so these are
// defaults offered to users, not an enforced set.
var (
	StatusOptions   = []string{"Not Started", "In Progress", "Done", "On Hold", "Cancelled"}
	PriorityOptions = []string{"Low", "Medium", "High", "Urgent"}
)

// StatusDone is the status value that marks a task complete.
const StatusDone = "Done"

// Property names in the task database.
const (
	PropertyName        = "Name"
	PropertyDescription = "Description"
	PropertyStatus      = "Status"
	PropertyPriority    = "Priority"
	PropertyAssignee    = "Assignee"
	PropertyDueDate     = "Due Date"
	PropertyTags        = "Tags"
)

// Task is the normalized view of one database page. Optional fields
// are nil when the page does not carry the property.
type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description,omitempty"`
	Status         *string   `json:"status,omitempty"`
	Priority       *string   `json:"priority,omitempty"`
	Assignee       *string   `json:"assignee,omitempty"`
	DueDate        *string   `json:"dueDate,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	URL            string    `json:"url"`
	CreatedTime    time.Time `json:"createdTime"`
	LastEditedTime time.Time `json:"lastEditedTime"`
}

// IsDone reports whether the task's status is [StatusDone].
func (task Task) IsDone() bool {
	return task.Status != nil && *task.Status == StatusDone
}

// Due parses DueDate. Notion dates are either a calendar date
// ("2026-03-01") or a full RFC 3339 timestamp; calendar dates are
// interpreted at midnight in loc. ok is false when the task has no due
// date or it does not parse.
func (task Task) Due(loc *time.Location) (time.Time, bool) {
	if task.DueDate == nil {
		return time.Time{}, false
	}
	if due, err := time.ParseInLocation(time.DateOnly, *task.DueDate, loc); err == nil {
		return due, true
	}
	if due, err := time.Parse(time.RFC3339, *task.DueDate); err == nil {
		return due, true
	}
	return time.Time{}, false
}

// TaskInput is a partial task for create and update. A nil field is
// absent: it produces no property in the request, so an update never
// clears a field it was not asked to change.
type TaskInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Assignee    *string   `json:"assignee,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Database is the metadata returned by [Client.GetDatabase].
// Properties maps each column name to its Notion property type
// ("title", "select", "status", ...).
type Database struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	URL        string            `json:"url"`
	Properties map[string]string `json:"properties"`
}

// ConnectionResult is the outcome of [Client.TestConnection].
type ConnectionResult struct {
	Success  bool     `json:"success"`
	Database Database `json:"database"`
}
