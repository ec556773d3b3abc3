package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	mcppkg "github.com/mark3labs/mcp-go/mcp"

	"github.com/AbduSami-bK/contact-manager/internal/backup"
	"github.com/AbduSami-bK/contact-manager/internal/slot"
	"github.com/AbduSami-bK/contact-manager/internal/store"
)

func newMCPTestStore(t *testing.T) *store.Store {
	t.Helper()
	archive, err := backup.NewDir(t.TempDir(), "contacts", "")
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	cfg := store.DefaultConfig()
	cfg.Archive = archive

	s, err := store.New(context.Background(), slot.NewMemory("contacts"), cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func callTool(t *testing.T, h func(context.Context, mcppkg.CallToolRequest) (*mcppkg.CallToolResult, error), args map[string]any) *mcppkg.CallToolResult {
	t.Helper()
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: args}}
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return res
}

func callResultText(t *testing.T, res *mcppkg.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected non-empty tool result")
	}
	text, ok := mcppkg.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content")
	}
	return text.Text
}

func seed(t *testing.T, s *store.Store, in store.ContactInput) *store.Contact {
	t.Helper()
	c, err := s.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestNewServerRegistersTools(t *testing.T) {
	s := newMCPTestStore(t)
	if srv := NewServer(s, "test"); srv == nil {
		t.Fatalf("expected MCP server instance")
	}
}

func TestResolveTools(t *testing.T) {
	if got := ResolveTools(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := ResolveTools("agent,all"); got != nil {
		t.Fatalf("expected nil when all is present, got %v", got)
	}

	got := ResolveTools("admin, contact_get")
	if len(got) != len(ProfileAdmin)+1 || !got["contact_get"] || !got["contact_export"] {
		t.Fatalf("unexpected resolution %v", got)
	}
	if got["contact_save"] {
		t.Fatalf("admin profile must not include contact_save")
	}
}

func TestProfilesCoverEveryTool(t *testing.T) {
	for name := range ProfileAgent {
		if ProfileAdmin[name] {
			t.Fatalf("tool %s is in both profiles", name)
		}
	}
	if n := len(ProfileAgent) + len(ProfileAdmin); n != 11 {
		t.Fatalf("expected 11 tools across profiles, got %d", n)
	}
}

func TestHandleSaveAndGet(t *testing.T) {
	s := newMCPTestStore(t)

	res := callTool(t, handleSave(s), map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@engines.org",
		"tags":       "math, history",
	})
	if res.IsError {
		t.Fatalf("unexpected save error: %s", callResultText(t, res))
	}
	text := callResultText(t, res)
	if !strings.Contains(text, "Contact saved: Ada Lovelace") {
		t.Fatalf("unexpected save output %q", text)
	}

	list, _ := s.List(context.Background())
	if len(list) != 1 || len(list[0].Tags) != 2 || list[0].Tags[1] != "history" {
		t.Fatalf("expected one contact with two tags, got %+v", list)
	}

	res = callTool(t, handleGet(s), map[string]any{"id": list[0].ID})
	if res.IsError {
		t.Fatalf("unexpected get error: %s", callResultText(t, res))
	}
	if text := callResultText(t, res); !strings.Contains(text, "Email: ada@engines.org") || !strings.Contains(text, "Tags: math, history") {
		t.Fatalf("unexpected get output %q", text)
	}
}

func TestHandleSaveValidates(t *testing.T) {
	s := newMCPTestStore(t)
	res := callTool(t, handleSave(s), map[string]any{"first_name": "Ada", "last_name": "Lovelace", "email": "nope"})
	if !res.IsError {
		t.Fatalf("expected validation error")
	}
	if text := callResultText(t, res); !strings.Contains(text, "email") {
		t.Fatalf("expected the failing field in the message, got %q", text)
	}
	if list, _ := s.List(context.Background()); len(list) != 0 {
		t.Fatalf("invalid contact must not be saved")
	}
}

func TestHandleGetUnknownID(t *testing.T) {
	s := newMCPTestStore(t)
	res := callTool(t, handleGet(s), map[string]any{"id": "missing"})
	if !res.IsError || !strings.Contains(callResultText(t, res), "not found") {
		t.Fatalf("expected not-found tool error")
	}

	res = callTool(t, handleGet(s), map[string]any{})
	if !res.IsError {
		t.Fatalf("expected error when id is missing")
	}
}

func TestHandleSearch(t *testing.T) {
	s := newMCPTestStore(t)
	seed(t, s, store.ContactInput{FirstName: "John", LastName: "Doe", Company: "Acme", Tags: []string{"work"}})
	seed(t, s, store.ContactInput{FirstName: "Jane", LastName: "Smith", Tags: []string{"friends"}})

	res := callTool(t, handleSearch(s), map[string]any{"query": "acme"})
	text := callResultText(t, res)
	if !strings.Contains(text, "Found 1 contacts") || !strings.Contains(text, "John Doe") {
		t.Fatalf("unexpected search output %q", text)
	}

	res = callTool(t, handleSearch(s), map[string]any{"tags": "friends,work", "sort_by": "firstName", "limit": float64(1)})
	text = callResultText(t, res)
	if !strings.Contains(text, "Jane Smith") || !strings.Contains(text, "1 more") {
		t.Fatalf("expected limited, sorted output, got %q", text)
	}

	res = callTool(t, handleSearch(s), map[string]any{"query": "nobody"})
	if text := callResultText(t, res); !strings.Contains(text, "No contacts found") {
		t.Fatalf("unexpected empty output %q", text)
	}

	res = callTool(t, handleSearch(s), map[string]any{"sort_by": "shoeSize"})
	if !res.IsError {
		t.Fatalf("expected error for unknown sort field")
	}
}

func TestHandleUpdate(t *testing.T) {
	s := newMCPTestStore(t)
	c := seed(t, s, store.ContactInput{FirstName: "John", LastName: "Doe", Tags: []string{"work"}})

	res := callTool(t, handleUpdate(s), map[string]any{"id": c.ID})
	if !res.IsError {
		t.Fatalf("expected error when no field is given")
	}

	res = callTool(t, handleUpdate(s), map[string]any{"id": c.ID, "company": "Initech", "tags": ""})
	if res.IsError {
		t.Fatalf("unexpected update error: %s", callResultText(t, res))
	}
	got, _ := s.Get(context.Background(), c.ID)
	if got.Company != "Initech" || len(got.Tags) != 0 || got.FirstName != "John" {
		t.Fatalf("unexpected merged contact %+v", got)
	}
}

func TestHandleFavoriteAndDelete(t *testing.T) {
	s := newMCPTestStore(t)
	c := seed(t, s, store.ContactInput{FirstName: "John", LastName: "Doe"})

	res := callTool(t, handleFavorite(s), map[string]any{"id": c.ID})
	if text := callResultText(t, res); !strings.Contains(text, "now a favorite") {
		t.Fatalf("unexpected favorite output %q", text)
	}

	res = callTool(t, handleDelete(s), map[string]any{"id": c.ID})
	if res.IsError {
		t.Fatalf("unexpected delete error: %s", callResultText(t, res))
	}
	res = callTool(t, handleDelete(s), map[string]any{"id": c.ID})
	if !res.IsError {
		t.Fatalf("expected error deleting twice")
	}
}

func TestHandleCapture(t *testing.T) {
	s := newMCPTestStore(t)
	text := "Best,\nGrace Hopper\nRear Admiral at Navy\ngrace@navy.mil\n+1 202 555 0143"

	res := callTool(t, handleCapture(s), map[string]any{"text": text, "dry_run": true})
	if res.IsError {
		t.Fatalf("unexpected capture error: %s", callResultText(t, res))
	}
	if out := callResultText(t, res); !strings.Contains(out, "not saved") || !strings.Contains(out, "Grace Hopper") {
		t.Fatalf("unexpected dry run output %q", out)
	}
	if list, _ := s.List(context.Background()); len(list) != 0 {
		t.Fatalf("dry run must not save")
	}

	res = callTool(t, handleCapture(s), map[string]any{"text": text, "tags": "navy"})
	if res.IsError {
		t.Fatalf("unexpected capture error: %s", callResultText(t, res))
	}
	list, _ := s.List(context.Background())
	if len(list) != 1 || list[0].Email != "grace@navy.mil" || list[0].Tags[0] != "navy" {
		t.Fatalf("unexpected captured contact %+v", list)
	}
}

func TestHandleCaptureNeedsAName(t *testing.T) {
	s := newMCPTestStore(t)
	res := callTool(t, handleCapture(s), map[string]any{"text": "someone@example.com"})
	if !res.IsError {
		t.Fatalf("expected error when no name can be found")
	}

	res = callTool(t, handleCapture(s), map[string]any{
		"text":       "someone@example.com",
		"first_name": "Some",
		"last_name":  "One",
	})
	if res.IsError {
		t.Fatalf("explicit names should make capture succeed: %s", callResultText(t, res))
	}
}

func TestHandleCaptureUsesExtractor(t *testing.T) {
	s := newMCPTestStore(t)
	prev := extractContact
	extractContact = func(string) store.ContactInput {
		return store.ContactInput{FirstName: "Stub", LastName: "Person"}
	}
	t.Cleanup(func() { extractContact = prev })

	res := callTool(t, handleCapture(s), map[string]any{"text": "anything", "dry_run": true})
	if out := callResultText(t, res); !strings.Contains(out, "Stub Person") {
		t.Fatalf("expected stubbed extraction, got %q", out)
	}
}

func TestHandleStats(t *testing.T) {
	s := newMCPTestStore(t)
	seed(t, s, store.ContactInput{FirstName: "John", LastName: "Doe", Email: "j@d.com", Tags: []string{"work"}})

	res := callTool(t, handleStats(s), nil)
	text := callResultText(t, res)
	if !strings.Contains(text, "Total: 1") || !strings.Contains(text, "work (1)") {
		t.Fatalf("unexpected stats output %q", text)
	}
}

func TestHandleStatsReturnsToolErrorOnFailure(t *testing.T) {
	s := newMCPTestStore(t)
	prev := loadMCPStats
	loadMCPStats = func(context.Context, *store.Store) (*store.Stats, error) {
		return nil, errors.New("boom")
	}
	t.Cleanup(func() { loadMCPStats = prev })

	res := callTool(t, handleStats(s), nil)
	if !res.IsError {
		t.Fatalf("expected tool error when stats fail")
	}
}

func TestHandleExportImportBackup(t *testing.T) {
	s := newMCPTestStore(t)
	seed(t, s, store.ContactInput{FirstName: "John", LastName: "Doe"})

	exported := callResultText(t, callTool(t, handleExport(s), nil))
	if !strings.HasPrefix(exported, "[") {
		t.Fatalf("expected JSON array, got %q", exported)
	}

	res := callTool(t, handleImport(s), map[string]any{"data": exported})
	if text := callResultText(t, res); text != "Imported 0 contacts" {
		t.Fatalf("expected duplicate ids to be skipped, got %q", text)
	}

	res = callTool(t, handleImport(s), map[string]any{"data": "{}"})
	if !res.IsError || !strings.Contains(callResultText(t, res), "invalid import data format") {
		t.Fatalf("expected malformed import error")
	}

	res = callTool(t, handleBackup(s), nil)
	if res.IsError || !strings.HasPrefix(callResultText(t, res), "Backup written: contacts-") {
		t.Fatalf("unexpected backup output %q", callResultText(t, res))
	}
}
