// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import (
	"context"
	"net/http"

	"github.com/jomei/notionapi"
)

// databaseObject is the part of GET /databases/{id} the client reads.
// Property configurations are reduced to their type so that column
// types unknown to the decoder do not fail the connection test.
type databaseObject struct {
	ID         string                `json:"id"`
	URL        string                `json:"url"`
	Title      []notionapi.RichText  `json:"title"`
	Properties map[string]columnType `json:"properties"`
}

type columnType struct {
	Type notionapi.PropertyConfigType `json:"type"`
}

// GetDatabase fetches the task database's metadata. A 401 is
// CodeInvalidKey, a 403 is CodeAccessDenied (the integration has not
// been added to the database), a 404 is CodeNotFound carrying the
// database ID.
func (client *Client) GetDatabase(ctx context.Context) (*Database, error) {
	var object databaseObject
	path := "/databases/" + client.databaseID
	if err := client.do(ctx, http.MethodGet, path, client.databaseID, nil, &object); err != nil {
		return nil, err
	}

	title := plain(object.Title)
	if title == "" {
		title = Untitled
	}
	properties := make(map[string]string, len(object.Properties))
	for name, column := range object.Properties {
		properties[name] = string(column.Type)
	}
	return &Database{
		ID:         object.ID,
		Title:      title,
		URL:        object.URL,
		Properties: properties,
	}, nil
}

// TestConnection verifies the token and database ID by fetching the
// database. Errors from GetDatabase are returned unchanged.
func (client *Client) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	database, err := client.GetDatabase(ctx)
	if err != nil {
		return nil, err
	}
	return &ConnectionResult{Success: true, Database: *database}, nil
}
