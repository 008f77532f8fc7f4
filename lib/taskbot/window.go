// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/notionbot/lib/notion"
)

// DueSoonWindow is how far ahead duetasks looks.
const DueSoonWindow = 72 * time.Hour

// ListLimit is how many tasks listassignees and liststatus show.
const ListLimit = 10

// WeekStart returns Monday 00:00 of the week containing t, in t's
// location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	year, month, day := t.Date()
	return time.Date(year, month, day-offset, 0, 0, 0, 0, t.Location())
}

// WeekEnd returns Sunday 00:00 of the week containing t. Due dates are
// calendar days, so a task due on Sunday falls on this instant.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// AssignedTo reports whether task's assignee is name, ignoring case.
func AssignedTo(task notion.Task, name string) bool {
	return task.Assignee != nil && strings.EqualFold(*task.Assignee, name)
}

// OpenTasksFor returns the tasks assigned to name that are not done,
// ordered by due date with undated tasks last.
func OpenTasksFor(tasks []notion.Task, name string, loc *time.Location) []notion.Task {
	var selected []notion.Task
	for _, task := range tasks {
		if !task.IsDone() && AssignedTo(task, name) {
			selected = append(selected, task)
		}
	}
	SortByDue(selected, loc)
	return selected
}

// DueWithin returns the open tasks due in [start, end], optionally
// restricted to one assignee, ordered by due date. Tasks with no due
// date or an unparseable one never match.
func DueWithin(tasks []notion.Task, start, end time.Time, assignee string, loc *time.Location) []notion.Task {
	var selected []notion.Task
	for _, task := range tasks {
		if task.IsDone() {
			continue
		}
		if assignee != "" && !AssignedTo(task, assignee) {
			continue
		}
		due, ok := task.Due(loc)
		if !ok || due.Before(start) || due.After(end) {
			continue
		}
		selected = append(selected, task)
	}
	SortByDue(selected, loc)
	return selected
}

// SortByDue orders tasks by due date ascending. Tasks without a
// parseable due date sort last; ties keep their relative order.
func SortByDue(tasks []notion.Task, loc *time.Location) {
	slices.SortStableFunc(tasks, func(a, b notion.Task) int {
		dueA, okA := a.Due(loc)
		dueB, okB := b.Due(loc)
		switch {
		case okA && okB:
			return dueA.Compare(dueB)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
}

// SortByCreated orders tasks oldest first.
func SortByCreated(tasks []notion.Task) {
	slices.SortStableFunc(tasks, func(a, b notion.Task) int {
		return cmp.Compare(a.CreatedTime.UnixNano(), b.CreatedTime.UnixNano())
	})
}
