// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import (
	"time"

	"github.com/jomei/notionapi"
)

// Untitled is the title given to a page whose title property is
// missing or empty. Display code relies on titles never being empty.
const Untitled = "Untitled"

// ToProperties maps the present fields of input to Notion property
// values. Absent fields produce no key. An empty Tags slice is treated
// as absent. A due date that is neither YYYY-MM-DD nor RFC 3339 is a
// CodeValidation error.
//
// Assignee is sent as a people entry carrying only a name, not a
// resolved workspace user ID; Notion resolves it only when the name
// matches a workspace member.
func ToProperties(input TaskInput) (notionapi.Properties, error) {
	properties := make(notionapi.Properties)

	if input.Title != nil && *input.Title != "" {
		properties[PropertyName] = &notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{text(*input.Title)},
		}
	}
	if input.Description != nil && *input.Description != "" {
		properties[PropertyDescription] = &notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{text(*input.Description)},
		}
	}
	if input.Status != nil && *input.Status != "" {
		properties[PropertyStatus] = selectValue(*input.Status)
	}
	if input.Priority != nil && *input.Priority != "" {
		properties[PropertyPriority] = selectValue(*input.Priority)
	}
	if input.Assignee != nil && *input.Assignee != "" {
		properties[PropertyAssignee] = &notionapi.PeopleProperty{
			Type:   notionapi.PropertyTypePeople,
			People: []notionapi.User{{Name: *input.Assignee}},
		}
	}
	if input.DueDate != nil && *input.DueDate != "" {
		start, err := parseDueDate(*input.DueDate)
		if err != nil {
			return nil, err
		}
		properties[PropertyDueDate] = &notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &start},
		}
	}
	if input.Tags != nil && len(*input.Tags) > 0 {
		options := make([]notionapi.Option, 0, len(*input.Tags))
		for _, tag := range *input.Tags {
			options = append(options, notionapi.Option{Name: tag})
		}
		properties[PropertyTags] = &notionapi.MultiSelectProperty{
			Type:        notionapi.PropertyTypeMultiSelect,
			MultiSelect: options,
		}
	}

	return properties, nil
}

func selectValue(name string) *notionapi.SelectProperty {
	return &notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: name},
	}
}

func parseDueDate(value string) (notionapi.Date, error) {
	if due, err := time.Parse(time.DateOnly, value); err == nil {
		return notionapi.Date(due), nil
	}
	if due, err := time.Parse(time.RFC3339, value); err == nil {
		return notionapi.Date(due), nil
	}
	return notionapi.Date{}, newValidationError("due date %q is not YYYY-MM-DD or an RFC 3339 timestamp", value)
}

// FromPage maps a Notion page to a Task. It never fails: each
// property is read only when present with the expected type, so a
// property renamed or retyped in the database reads as absent.
//
// Description comes from the Description property. When the page has
// none, the first paragraph among blocks is used. Query results carry
// no blocks; [Client.GetTask] fetches them for a single page.
//
// Status and Priority are read from select properties only, matching
// the select filters of [StatusEquals] and [StatusNotEquals]. A Status
// column of Notion's dedicated status type reads as absent.
func FromPage(page *notionapi.Page, blocks ...notionapi.Block) Task {
	task := Task{
		ID:             string(page.ID),
		URL:            page.URL,
		CreatedTime:    page.CreatedTime,
		LastEditedTime: page.LastEditedTime,
		Title:          Untitled,
	}

	properties := page.Properties
	if title := readTitle(properties[PropertyName]); title != "" {
		task.Title = title
	}
	task.Status = readSelect(properties[PropertyStatus])
	task.Priority = readSelect(properties[PropertyPriority])
	task.Assignee = readFirstPerson(properties[PropertyAssignee])
	task.DueDate = readDateStart(properties[PropertyDueDate])
	task.Tags = readMultiSelect(properties[PropertyTags])

	if description := readRichText(properties[PropertyDescription]); description != nil {
		task.Description = description
	} else if description := firstParagraph(blocks); description != nil {
		task.Description = description
	}

	return task
}

func readTitle(property notionapi.Property) string {
	title, ok := property.(*notionapi.TitleProperty)
	if !ok {
		return ""
	}
	return plain(title.Title)
}

func readRichText(property notionapi.Property) *string {
	richText, ok := property.(*notionapi.RichTextProperty)
	if !ok {
		return nil
	}
	return nonEmpty(plain(richText.RichText))
}

func readSelect(property notionapi.Property) *string {
	selected, ok := property.(*notionapi.SelectProperty)
	if !ok {
		return nil
	}
	return nonEmpty(selected.Select.Name)
}

func readFirstPerson(property notionapi.Property) *string {
	people, ok := property.(*notionapi.PeopleProperty)
	if !ok || len(people.People) == 0 {
		return nil
	}
	return nonEmpty(people.People[0].Name)
}

// readDateStart renders a date-only value as YYYY-MM-DD and anything
// with a time of day as RFC 3339. A timestamp at exactly midnight UTC
// is indistinguishable from a date and reads as one.
func readDateStart(property notionapi.Property) *string {
	date, ok := property.(*notionapi.DateProperty)
	if !ok || date.Date == nil || date.Date.Start == nil {
		return nil
	}
	start := time.Time(*date.Date.Start)
	if start.IsZero() {
		return nil
	}
	if start.Location() == time.UTC && start.Equal(start.Truncate(24*time.Hour)) {
		return nonEmpty(start.Format(time.DateOnly))
	}
	return nonEmpty(start.Format(time.RFC3339))
}

func readMultiSelect(property notionapi.Property) []string {
	multiSelect, ok := property.(*notionapi.MultiSelectProperty)
	if !ok || len(multiSelect.MultiSelect) == 0 {
		return nil
	}
	names := make([]string, 0, len(multiSelect.MultiSelect))
	for _, option := range multiSelect.MultiSelect {
		names = append(names, option.Name)
	}
	return names
}

func firstParagraph(blocks []notionapi.Block) *string {
	for _, block := range blocks {
		if paragraphBlock, ok := block.(*notionapi.ParagraphBlock); ok {
			return nonEmpty(plain(paragraphBlock.Paragraph.RichText))
		}
	}
	return nil
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// text builds a single text-typed rich text span.
func text(content string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}
}

// plain returns the plain text of the first span, falling back to the
// text payload for spans built locally (which carry no plain_text).
func plain(spans []notionapi.RichText) string {
	if len(spans) == 0 {
		return ""
	}
	if spans[0].PlainText != "" {
		return spans[0].PlainText
	}
	if spans[0].Text != nil {
		return spans[0].Text.Content
	}
	return ""
}

// paragraph builds a paragraph block holding content.
func paragraph(content string) *notionapi.ParagraphBlock {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: []notionapi.RichText{text(content)},
		},
	}
}

// descriptionBlocks returns the children for a new page: a single
// paragraph holding description, or nil.
func descriptionBlocks(description *string) []notionapi.Block {
	if description == nil || *description == "" {
		return nil
	}
	return []notionapi.Block{paragraph(*description)}
}
