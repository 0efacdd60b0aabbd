// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sage-x-project/memkit/pkg/errors"
	"github.com/sage-x-project/memkit/pkg/types"
	"github.com/sage-x-project/memkit/storage"
)

func newTestPipeline(t *testing.T, oracle EnrichmentOracle) (*Pipeline, storage.Engine) {
	t.Helper()

	engine := storage.NewSQLiteEngine(&storage.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "memory.db"),
	})
	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	return New(Config{Store: engine, Oracle: oracle}), engine
}

func toolEvent(sessionID, toolName, toolInput, toolResponse string) *Event {
	return &Event{
		SessionID:    sessionID,
		CWD:          "/work/demo",
		Project:      "demo",
		ToolName:     toolName,
		ToolInput:    toolInput,
		ToolResponse: toolResponse,
		Timestamp:    types.NowMillis(),
	}
}

func TestPipeline_HandlePrompt(t *testing.T) {
	p, engine := newTestPipeline(t, nil)
	ctx := context.Background()

	event := &Event{SessionID: "session-1", Project: "demo", Prompt: "fix the bug"}

	prompt, err := p.HandlePrompt(ctx, event)
	if err != nil {
		t.Fatalf("HandlePrompt() error = %v", err)
	}
	if prompt.PromptNumber != 1 {
		t.Errorf("PromptNumber = %d, want 1", prompt.PromptNumber)
	}

	// Session was created idempotently.
	session, err := engine.GetSession(ctx, "session-1")
	if err != nil {
		t.Fatal(err)
	}
	if session.Project != "demo" {
		t.Errorf("Project = %q", session.Project)
	}

	prompt, _ = p.HandlePrompt(ctx, event)
	if prompt.PromptNumber != 2 {
		t.Errorf("second PromptNumber = %d, want 2", prompt.PromptNumber)
	}
}

func TestPipeline_HandleToolUse(t *testing.T) {
	p, engine := newTestPipeline(t, nil)
	ctx := context.Background()

	obs, err := p.HandleToolUse(ctx, toolEvent("session-1", "Read", `{"file_path":"main.go"}`, "package main"))
	if err != nil {
		t.Fatalf("HandleToolUse() error = %v", err)
	}
	if obs == nil {
		t.Fatal("observation should be recorded")
	}
	if obs.Type != types.ObservationRead {
		t.Errorf("Type = %v", obs.Type)
	}
	if obs.Title != "Read main.go" {
		t.Errorf("Title = %q", obs.Title)
	}

	stored, err := engine.GetObservation(ctx, obs.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FilesRead[0] != "main.go" {
		t.Errorf("FilesRead = %v", stored.FilesRead)
	}
}

func TestPipeline_SkipsInternalTools(t *testing.T) {
	p, engine := newTestPipeline(t, nil)
	ctx := context.Background()

	obs, err := p.HandleToolUse(ctx, toolEvent("session-1", "TodoWrite", "{}", ""))
	if err != nil {
		t.Fatalf("HandleToolUse() error = %v", err)
	}
	if obs != nil {
		t.Error("internal tools must not be recorded")
	}

	// No session should have been created for a skipped tool.
	if _, err := engine.GetSession(ctx, "session-1"); !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("GetSession = %v, want ErrSessionNotFound", err)
	}
}

func TestPipeline_ToolUseLinksPrompt(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	p.HandlePrompt(ctx, &Event{SessionID: "session-1", Project: "demo", Prompt: "first"})
	p.HandlePrompt(ctx, &Event{SessionID: "session-1", Project: "demo", Prompt: "second"})

	obs, err := p.HandleToolUse(ctx, toolEvent("session-1", "Bash", `{"command":"go vet"}`, "ok"))
	if err != nil {
		t.Fatal(err)
	}
	if obs.PromptNumber != 2 {
		t.Errorf("PromptNumber = %d, want the latest prompt 2", obs.PromptNumber)
	}
}

// stubOracle returns a fixed enrichment or error.
type stubOracle struct {
	enrichment *Enrichment
	err        error
	calls      int
}

func (s *stubOracle) Enrich(ctx context.Context, toolName, toolInput, toolResponse string) (*Enrichment, error) {
	s.calls++
	return s.enrichment, s.err
}

func TestPipeline_Enrichment(t *testing.T) {
	oracle := &stubOracle{enrichment: &Enrichment{
		Subtitle:  "read the entrypoint",
		Narrative: "opened main.go to inspect the wiring",
		Facts:     []string{"main.go hosts the CLI entrypoint"},
		Concepts:  []string{"cli"},
	}}
	p, _ := newTestPipeline(t, oracle)

	obs, err := p.HandleToolUse(context.Background(), toolEvent("session-1", "Read", `{"file_path":"main.go"}`, ""))
	if err != nil {
		t.Fatal(err)
	}
	if obs.Subtitle != "read the entrypoint" {
		t.Errorf("Subtitle = %q", obs.Subtitle)
	}
	if len(obs.Facts) != 1 || len(obs.Concepts) != 1 {
		t.Errorf("enrichment lists = %v / %v", obs.Facts, obs.Concepts)
	}
	// Deterministic title survives enrichment.
	if obs.Title != "Read main.go" {
		t.Errorf("Title = %q", obs.Title)
	}
}

func TestPipeline_EnrichmentFailureFallsBack(t *testing.T) {
	oracle := &stubOracle{err: errors.ErrOracleTimeout}
	p, _ := newTestPipeline(t, oracle)

	obs, err := p.HandleToolUse(context.Background(), toolEvent("session-1", "Read", `{"file_path":"main.go"}`, ""))
	if err != nil {
		t.Fatalf("oracle failure must not fail the pipeline: %v", err)
	}
	if obs.Subtitle != "" || obs.Narrative != "" {
		t.Error("failed enrichment should leave the deterministic record")
	}
	if obs.Title != "Read main.go" {
		t.Errorf("Title = %q", obs.Title)
	}
}

func TestPipeline_EnrichmentRefusalFallsBack(t *testing.T) {
	oracle := &stubOracle{} // returns (nil, nil): refusal
	p, _ := newTestPipeline(t, oracle)

	obs, err := p.HandleToolUse(context.Background(), toolEvent("session-1", "Read", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if obs.Subtitle != "" {
		t.Error("refusal should leave the deterministic record")
	}
	if oracle.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", oracle.calls)
	}
}

func TestPipeline_SessionEndScenario(t *testing.T) {
	// Spec seed scenario: one Read, one Write, one Bash npm test, one
	// WebSearch; session end folds them into a summary.
	p, engine := newTestPipeline(t, nil)
	ctx := context.Background()

	p.HandlePrompt(ctx, &Event{SessionID: "session-1", Project: "demo", Prompt: "add tests"})

	inputs := []struct {
		tool, input string
	}{
		{"Read", `{"file_path":"reader.go"}`},
		{"Write", `{"file_path":"writer.go"}`},
		{"Bash", `{"command":"npm test"}`},
		{"WebSearch", `{"query":"jest timers"}`},
	}
	for _, in := range inputs {
		if _, err := p.HandleToolUse(ctx, toolEvent("session-1", in.tool, in.input, "ok")); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := p.HandleSessionEnd(ctx, &Event{SessionID: "session-1", Project: "demo"})
	if err != nil {
		t.Fatalf("HandleSessionEnd() error = %v", err)
	}

	wantPrefix := "1 file(s) modified, 1 file(s) read, 1 command(s) executed, 1 search(es)"
	if !strings.HasPrefix(summary.Completed, wantPrefix) {
		t.Errorf("Completed = %q, want prefix %q", summary.Completed, wantPrefix)
	}
	if len(summary.FilesRead) != 1 || summary.FilesRead[0] != "reader.go" {
		t.Errorf("FilesRead = %v", summary.FilesRead)
	}
	if len(summary.FilesModified) != 1 || summary.FilesModified[0] != "writer.go" {
		t.Errorf("FilesModified = %v", summary.FilesModified)
	}
	if len(summary.Notes) != 1 || summary.Notes[0] != "npm test" {
		t.Errorf("Notes = %v", summary.Notes)
	}
	if summary.PromptNumber != 1 {
		t.Errorf("PromptNumber = %d, want 1", summary.PromptNumber)
	}
	if !strings.Contains(summary.Request, "[#1] add tests") {
		t.Errorf("Request = %q", summary.Request)
	}

	// Session marked completed with the one-line rendition.
	session, _ := engine.GetSession(ctx, "session-1")
	if session.Status != types.SessionCompleted {
		t.Errorf("Status = %v", session.Status)
	}
	if session.Summary == "" {
		t.Error("session summary line should be set")
	}
}

func TestPipeline_SessionStartContext(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	// Fresh project: empty payload.
	payload, err := p.HandleSessionStart(ctx, &Event{SessionID: "session-1", Project: "demo"})
	if err != nil {
		t.Fatalf("HandleSessionStart() error = %v", err)
	}
	if payload != "" {
		t.Errorf("fresh project payload = %q, want empty", payload)
	}

	// Build some history, end the session, then start a new one.
	p.HandlePrompt(ctx, &Event{SessionID: "session-1", Project: "demo", Prompt: "do things"})
	p.HandleToolUse(ctx, toolEvent("session-1", "Write", `{"file_path":"done.go"}`, ""))
	p.HandleSessionEnd(ctx, &Event{SessionID: "session-1", Project: "demo"})

	payload, err = p.HandleSessionStart(ctx, &Event{SessionID: "session-2", Project: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	if payload == "" {
		t.Fatal("payload should carry history")
	}
	if !strings.Contains(payload, "demo") {
		t.Errorf("payload should name the project: %q", payload)
	}
	if !strings.Contains(payload, "Write done.go") {
		t.Errorf("payload should list recent observations: %q", payload)
	}
}

func TestPipeline_EnrichObservation(t *testing.T) {
	oracle := &stubOracle{enrichment: &Enrichment{Subtitle: "later enrichment"}}
	p, engine := newTestPipeline(t, nil)
	ctx := context.Background()

	// Record without an oracle, enrich later.
	obs, _ := p.HandleToolUse(ctx, toolEvent("session-1", "Bash", `{"command":"make"}`, "built"))

	enricher := New(Config{Store: engine, Oracle: oracle})
	enriched, err := enricher.EnrichObservation(ctx, obs.ID)
	if err != nil {
		t.Fatalf("EnrichObservation() error = %v", err)
	}
	if enriched.Subtitle != "later enrichment" {
		t.Errorf("Subtitle = %q", enriched.Subtitle)
	}

	stored, _ := engine.GetObservation(ctx, obs.ID)
	if stored.Subtitle != "later enrichment" {
		t.Error("enrichment should be persisted")
	}

	if _, err := p.EnrichObservation(ctx, obs.ID); !errors.Is(err, errors.ErrProviderNotSet) {
		t.Errorf("EnrichObservation without oracle = %v, want ErrProviderNotSet", err)
	}
}

func TestBuildSummary_Limits(t *testing.T) {
	var observations []*types.Observation
	for i := 0; i < 30; i++ {
		observations = append(observations, &types.Observation{
			Type:      types.ObservationRead,
			FilesRead: []string{fmt.Sprintf("file%d.go", i)},
		})
	}
	for i := 0; i < 8; i++ {
		observations = append(observations, &types.Observation{
			Type:      types.ObservationExecute,
			ToolInput: fmt.Sprintf(`{"command":"cmd-%d"}`, i),
		})
	}

	var prompts []*types.UserPrompt
	for i := 1; i <= 5; i++ {
		prompts = append(prompts, &types.UserPrompt{
			PromptNumber: i,
			PromptText:   strings.Repeat("p", 300),
		})
	}

	summary := BuildSummary("session-1", "demo", prompts, observations)

	if len(summary.FilesRead) != maxSummaryFiles {
		t.Errorf("FilesRead = %d, want cap %d", len(summary.FilesRead), maxSummaryFiles)
	}
	if len(summary.Notes) != maxSummaryCommands {
		t.Errorf("Notes = %d, want cap %d", len(summary.Notes), maxSummaryCommands)
	}
	if len([]rune(summary.Request)) > maxRequestLen {
		t.Errorf("Request length = %d, want <= %d", len([]rune(summary.Request)), maxRequestLen)
	}
	if summary.PromptNumber != 5 {
		t.Errorf("PromptNumber = %d, want 5", summary.PromptNumber)
	}
}

func TestBuildSummary_DuplicateFiles(t *testing.T) {
	observations := []*types.Observation{
		{Type: types.ObservationRead, FilesRead: []string{"a.go"}},
		{Type: types.ObservationRead, FilesRead: []string{"a.go"}},
		{Type: types.ObservationWrite, FilesModified: []string{"b.go"}},
		{Type: types.ObservationWrite, FilesModified: []string{"b.go"}},
	}

	summary := BuildSummary("s", "p", nil, observations)
	if len(summary.FilesRead) != 1 {
		t.Errorf("FilesRead = %v, want deduplicated", summary.FilesRead)
	}
	if len(summary.FilesModified) != 1 {
		t.Errorf("FilesModified = %v, want deduplicated", summary.FilesModified)
	}
	if summary.Completed != "2 file(s) modified, 2 file(s) read" {
		t.Errorf("Completed = %q", summary.Completed)
	}
}

func TestClampEnrichment(t *testing.T) {
	e := &Enrichment{
		Facts:    []string{strings.Repeat("f", 300), "b", "c", "d", "e", "excess"},
		Concepts: []string{strings.Repeat("c", 90), "b", "c", "d", "e", "excess"},
	}
	clamped := clampEnrichment(e)

	if len(clamped.Facts) != MaxFacts {
		t.Errorf("facts = %d, want %d", len(clamped.Facts), MaxFacts)
	}
	if len([]rune(clamped.Facts[0])) != MaxFactLen {
		t.Errorf("fact length = %d, want %d", len([]rune(clamped.Facts[0])), MaxFactLen)
	}
	if len(clamped.Concepts) != MaxConcepts {
		t.Errorf("concepts = %d, want %d", len(clamped.Concepts), MaxConcepts)
	}
	if len([]rune(clamped.Concepts[0])) != MaxConceptLen {
		t.Errorf("concept length = %d, want %d", len([]rune(clamped.Concepts[0])), MaxConceptLen)
	}
}

func TestParseEnrichment(t *testing.T) {
	enrichment, err := parseEnrichment("Sure! Here it is:\n```json\n{\"subtitle\":\"s\",\"facts\":[\"f\"]}\n```")
	if err != nil {
		t.Fatalf("parseEnrichment() error = %v", err)
	}
	if enrichment.Subtitle != "s" || len(enrichment.Facts) != 1 {
		t.Errorf("enrichment = %+v", enrichment)
	}

	if _, err := parseEnrichment("no json here"); !errors.Is(err, errors.ErrParse) {
		t.Errorf("prose answer = %v, want ErrParse", err)
	}
}
