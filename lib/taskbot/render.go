// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// adviceMarkdown renders GitHub-flavoured Markdown. Raw HTML in the
// input is dropped: advice text comes from an LLM and is shown in the
// dashboard.
var adviceMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderAdviceHTML converts advice Markdown to an HTML fragment.
func RenderAdviceHTML(markdown string) (string, error) {
	var buffer bytes.Buffer
	if err := adviceMarkdown.Convert([]byte(markdown), &buffer); err != nil {
		return "", fmt.Errorf("taskbot: rendering advice: %w", err)
	}
	return buffer.String(), nil
}
