// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package notion provides a typed client for the subset of the Notion
// REST API used to manage a task database.
//
// A Client is bound to one integration token and one database ID. It
// holds no mutable state, so it is cheap to construct per request with
// credentials resolved from the guild configuration store.
//
// Every call goes through [Retry]: transport failures, 429 and 5xx
// responses are retried with exponential backoff (or the server's
// Retry-After hint); 401, 403 and 404 are returned on the first
// occurrence. Failures surface as *[Error] with a stable [Code] that
// callers can switch on without parsing messages.
//
// Requests and responses use the wire types of
// github.com/jomei/notionapi; the transport, retries and error mapping
// are this package's own. The property mapper ([ToProperties],
// [FromPage]) translates between the normalized [Task] model and
// notionapi's typed properties. Reads fail soft: a renamed or missing
// property maps to a nil field, never to an error, because Notion
// database schemas are user-editable.
package notion
