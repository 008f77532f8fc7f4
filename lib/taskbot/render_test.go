// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskbot

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderAdviceHTML(t *testing.T) {
	html, err := RenderAdviceHTML("## Next steps\n\n1. **Ship** the release\n2. Close ~~stale~~ issues\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderAdviceHTML: %v", err)
	}
	for _, want := range []string{"<h2>Next steps</h2>", "<ol>", "<strong>Ship</strong>", "<del>stale</del>"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("raw HTML passed through:\n%s", html)
	}
}

func TestAdvisor_Disabled(t *testing.T) {
	var advisor *Advisor
	if advisor.Enabled() {
		t.Error("nil advisor reports enabled")
	}
	if _, err := advisor.AdviseWeek(context.Background(), nil); !errors.Is(err, ErrNoAdvisor) {
		t.Errorf("error = %v, want ErrNoAdvisor", err)
	}
}

func TestAdvisor_EmptyResponse(t *testing.T) {
	advisor := &Advisor{Provider: &fakeProvider{text: "  \n"}, MaxTokens: 64}
	if _, err := advisor.AdviseAssignee(context.Background(), "alice", nil); err == nil {
		t.Error("an empty completion should be an error")
	}
	request := advisor.Provider.(*fakeProvider).requests[0]
	if request.MaxTokens != 64 {
		t.Errorf("MaxTokens = %d, want 64", request.MaxTokens)
	}
}
