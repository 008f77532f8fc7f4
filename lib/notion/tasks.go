// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// MaxPageSize is the largest page_size Notion accepts. GetTasks sends
// one query and does not follow next_cursor, so databases with more
// rows are truncated to this many results.
const MaxPageSize = 100

// Filter is a Notion database query filter.
type Filter = notionapi.Filter

// StatusEquals matches tasks whose Status select equals name.
func StatusEquals(name string) Filter {
	return notionapi.PropertyFilter{
		Property: PropertyStatus,
		Select:   &notionapi.SelectFilterCondition{Equals: name},
	}
}

// StatusNotEquals matches tasks whose Status select is anything but
// name, including tasks with no status.
func StatusNotEquals(name string) Filter {
	return notionapi.PropertyFilter{
		Property: PropertyStatus,
		Select:   &notionapi.SelectFilterCondition{DoesNotEqual: name},
	}
}

// CreatedOnOrAfter matches pages created at or after t.
func CreatedOnOrAfter(t time.Time) Filter {
	return notionapi.TimestampFilter{
		Timestamp:   notionapi.TimestampCreated,
		CreatedTime: &notionapi.DateFilterCondition{OnOrAfter: date(t)},
	}
}

// DueBetween matches tasks whose due date falls in [start, end],
// inclusive at both ends.
func DueBetween(start, end time.Time) Filter {
	return notionapi.PropertyFilter{
		Property: PropertyDueDate,
		Date: &notionapi.DateFilterCondition{
			OnOrAfter:  date(start),
			OnOrBefore: date(end),
		},
	}
}

// AssigneeContains matches tasks whose people property contains the
// given Notion user ID. The property is named "Assign" rather than
// PropertyAssignee because the dashboard's task filter has always
// queried that name.
func AssigneeContains(userID string) Filter {
	return notionapi.PropertyFilter{
		Property: "Assign",
		People:   &notionapi.PeopleFilterCondition{Contains: userID},
	}
}

// And combines filters. Returns nil for no filters and the filter
// itself for one.
func And(filters ...Filter) Filter {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	}
	clauses := make(notionapi.AndCompoundFilter, len(filters))
	copy(clauses, filters)
	return clauses
}

func date(t time.Time) *notionapi.Date {
	value := notionapi.Date(t)
	return &value
}

// queryResponse keeps results raw so one page that fails to decode
// does not fail the whole query.
type queryResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// pageEnvelope is the part of a page object that does not depend on
// the database schema.
type pageEnvelope struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	CreatedTime    time.Time `json:"created_time"`
	LastEditedTime time.Time `json:"last_edited_time"`
}

// GetTasks queries the database and returns up to MaxPageSize tasks
// sorted by CreatedTime, newest first. The order Notion returns is
// not relied on. filter may be nil.
func (client *Client) GetTasks(ctx context.Context, filter Filter) ([]Task, error) {
	var response queryResponse
	path := "/databases/" + client.databaseID + "/query"
	request := &notionapi.DatabaseQueryRequest{Filter: filter, PageSize: MaxPageSize}
	if err := client.do(ctx, http.MethodPost, path, client.databaseID, request, &response); err != nil {
		return nil, err
	}

	if response.HasMore {
		client.logger.Warn("notion query truncated",
			"database_id", client.databaseID,
			"returned", len(response.Results),
		)
	}

	tasks := make([]Task, 0, len(response.Results))
	for _, raw := range response.Results {
		page, err := client.decodePage(raw)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, FromPage(page))
	}
	SortByCreatedDesc(tasks)
	return tasks, nil
}

// decodePage decodes one page object. When the properties cannot be
// decoded (a property type the decoder does not know), the page is
// kept with its envelope fields only and reads as an untitled task.
// It fails only when the envelope itself is malformed.
func (client *Client) decodePage(raw json.RawMessage) (*notionapi.Page, error) {
	var page notionapi.Page
	err := json.Unmarshal(raw, &page)
	if err == nil {
		return &page, nil
	}

	var envelope pageEnvelope
	if envelopeErr := json.Unmarshal(raw, &envelope); envelopeErr != nil {
		return nil, fmt.Errorf("notion: decoding page: %w", envelopeErr)
	}
	client.logger.Warn("notion page properties undecodable",
		"page_id", envelope.ID,
		"error", err,
	)
	return &notionapi.Page{
		ID:             notionapi.ObjectID(envelope.ID),
		URL:            envelope.URL,
		CreatedTime:    envelope.CreatedTime,
		LastEditedTime: envelope.LastEditedTime,
	}, nil
}

// SortByCreatedDesc orders tasks newest first. Ties keep their
// relative order.
func SortByCreatedDesc(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedTime.After(tasks[j].CreatedTime)
	})
}

// CreateTask creates a page in the database. The title is required;
// the description, when set, becomes the page's first paragraph
// rather than a property, so it shows as body text in Notion.
//
// The request is retried on transient failure like every other call.
// A create whose response is lost after Notion committed it will be
// repeated and can leave a duplicate page.
func (client *Client) CreateTask(ctx context.Context, input TaskInput) (*Task, error) {
	if input.Title == nil || *input.Title == "" {
		return nil, newValidationError("task title is required")
	}

	properties, err := ToProperties(input)
	if err != nil {
		return nil, err
	}
	delete(properties, PropertyDescription)

	request := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(client.databaseID),
		},
		Properties: properties,
		Children:   descriptionBlocks(input.Description),
	}
	var raw json.RawMessage
	if err := client.do(ctx, http.MethodPost, "/pages", client.databaseID, request, &raw); err != nil {
		return nil, err
	}
	page, err := client.decodePage(raw)
	if err != nil {
		return nil, err
	}

	task := FromPage(page, descriptionBlocks(input.Description)...)
	return &task, nil
}

// GetTask fetches one page. When the page has no Description
// property, its first paragraph block is used as the description,
// which is where CreateTask puts it.
func (client *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	path, err := pagePath(taskID)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := client.do(ctx, http.MethodGet, path, taskID, nil, &raw); err != nil {
		return nil, err
	}
	page, err := client.decodePage(raw)
	if err != nil {
		return nil, err
	}
	if readRichText(page.Properties[PropertyDescription]) != nil {
		task := FromPage(page)
		return &task, nil
	}

	blocks, err := client.getParagraphs(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task := FromPage(page, blocks...)
	return &task, nil
}

// descriptionBlockLimit bounds how many top-level blocks GetTask reads
// looking for the first paragraph.
const descriptionBlockLimit = 10

// childBlock is the part of a block object GetTask reads. Blocks are
// decoded loosely so that block types unknown to the decoder are
// skipped instead of failing the read.
type childBlock struct {
	Type      notionapi.BlockType `json:"type"`
	Paragraph *struct {
		RichText []notionapi.RichText `json:"rich_text"`
	} `json:"paragraph"`
}

// getParagraphs returns the paragraph blocks among the first
// descriptionBlockLimit children of a page.
func (client *Client) getParagraphs(ctx context.Context, pageID string) ([]notionapi.Block, error) {
	var response struct {
		Results []childBlock `json:"results"`
	}
	query := url.Values{"page_size": {strconv.Itoa(descriptionBlockLimit)}}
	path := "/blocks/" + url.PathEscape(pageID) + "/children?" + query.Encode()
	if err := client.do(ctx, http.MethodGet, path, pageID, nil, &response); err != nil {
		return nil, err
	}

	var blocks []notionapi.Block
	for _, child := range response.Results {
		if child.Type != notionapi.BlockTypeParagraph || child.Paragraph == nil {
			continue
		}
		block := paragraph("")
		block.Paragraph.RichText = child.Paragraph.RichText
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// pagePath returns the escaped API path for a page. IDs made only of
// dots are rejected: escaping leaves them unchanged and they would
// resolve to a different endpoint.
func pagePath(taskID string) (string, error) {
	if taskID == "" {
		return "", newValidationError("task ID is required")
	}
	if strings.Trim(taskID, ".") == "" {
		return "", newValidationError("task ID %q is not a page ID", taskID)
	}
	return "/pages/" + url.PathEscape(taskID), nil
}

type updatePageRequest struct {
	Properties notionapi.Properties `json:"properties"`
}

// UpdateTask patches only the properties present in input. A 404
// carries taskID as the error's ResourceID. The description is written
// to the Description property; a database without one rejects the
// update with CodeValidation.
func (client *Client) UpdateTask(ctx context.Context, taskID string, input TaskInput) (*Task, error) {
	path, err := pagePath(taskID)
	if err != nil {
		return nil, err
	}
	properties, err := ToProperties(input)
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, newValidationError("update for task %s changes no fields", taskID)
	}

	var raw json.RawMessage
	if err := client.do(ctx, http.MethodPatch, path, taskID, updatePageRequest{Properties: properties}, &raw); err != nil {
		return nil, err
	}
	page, err := client.decodePage(raw)
	if err != nil {
		return nil, err
	}
	task := FromPage(page)
	return &task, nil
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

// DeleteTask archives the page. Notion has no hard delete through the
// public API; the page stays restorable from Notion's trash and its
// ID is never reused.
func (client *Client) DeleteTask(ctx context.Context, taskID string) error {
	path, err := pagePath(taskID)
	if err != nil {
		return err
	}
	return client.do(ctx, http.MethodPatch, path, taskID, archiveRequest{Archived: true}, nil)
}
