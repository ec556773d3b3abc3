// Package mcp implements the Model Context Protocol server for contact-manager.
//
// This exposes the address book via MCP stdio transport so any agent
// (Claude Code, Cursor, Gemini CLI, Codex, ...) can look people up and file
// new contacts by adding contact-manager as an MCP server.
//
// Tool profiles allow agents to load only the tools they need:
//
//	contact-manager mcp                      → all tools (default)
//	contact-manager mcp --tools=agent        → lookup, save and favorite tools
//	contact-manager mcp --tools=admin        → export, import, backup, delete
//	contact-manager mcp --tools=agent,admin  → combine profiles
//	contact-manager mcp --tools=contact_search,contact_get → individual tool names
package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/AbduSami-bK/contact-manager/internal/extract"
	"github.com/AbduSami-bK/contact-manager/internal/store"
	"github.com/AbduSami-bK/contact-manager/internal/validate"
)

var extractContact = extract.FromText

var loadMCPStats = func(ctx context.Context, s *store.Store) (*store.Stats, error) {
	return s.Stats(ctx)
}

// ─── Tool Profiles ───────────────────────────────────────────────────────────
//
// "agent": lookups plus the writes an assistant makes on the user's behalf:
//   contact_search, contact_get, contact_stats, contact_save,
//   contact_update, contact_favorite, contact_capture
//
// "admin": bulk and destructive tools:
//   contact_delete, contact_export, contact_import, contact_backup
//
// "all" (default): every tool registered.

var ProfileAgent = map[string]bool{
	"contact_search":   true,
	"contact_get":      true,
	"contact_stats":    true,
	"contact_save":     true,
	"contact_update":   true,
	"contact_favorite": true,
	"contact_capture":  true,
}

var ProfileAdmin = map[string]bool{
	"contact_delete": true,
	"contact_export": true,
	"contact_import": true,
	"contact_backup": true,
}

// Profiles maps profile names to their tool sets.
var Profiles = map[string]map[string]bool{
	"agent": ProfileAgent,
	"admin": ProfileAdmin,
}

// ResolveTools takes a comma-separated string of profile names and/or
// individual tool names and returns the set of tool names to register.
// An empty input means "all".
func ResolveTools(input string) map[string]bool {
	input = strings.TrimSpace(input)
	if input == "" || input == "all" {
		return nil // nil means register everything
	}

	result := make(map[string]bool)
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if token == "all" {
			return nil
		}
		if profile, ok := Profiles[token]; ok {
			for tool := range profile {
				result[tool] = true
			}
		} else {
			result[token] = true
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// NewServer creates an MCP server with all tools registered.
func NewServer(s *store.Store, version string) *server.MCPServer {
	return NewServerWithTools(s, version, nil)
}

const serverInstructions = `contact-manager is the user's personal address book. Search these tools ` +
	`when you need to: look up a person's email, phone, company or title; save ` +
	`someone the user mentions or whose signature appears in the conversation; ` +
	`mark favorites; or export and back up the contact list. Key tools: ` +
	`contact_search, contact_get, contact_save, contact_capture.`

// NewServerWithTools registers only the tools in allowlist. A nil allowlist
// registers everything.
func NewServerWithTools(s *store.Store, version string, allowlist map[string]bool) *server.MCPServer {
	srv := server.NewMCPServer(
		"contact-manager",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	registerTools(srv, s, allowlist)
	return srv
}

func shouldRegister(name string, allowlist map[string]bool) bool {
	if allowlist == nil {
		return true
	}
	return allowlist[name]
}

// contactFields are the optional string fields shared by save and update.
func contactFields() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("phone", mcp.Description("Phone number as the user writes it")),
		mcp.WithString("company", mcp.Description("Company or organization")),
		mcp.WithString("job_title", mcp.Description("Job title")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags, at most 10 (e.g. 'work,conference-2026')")),
		mcp.WithString("avatar", mcp.Description("Avatar URL")),
	}
}

func registerTools(srv *server.MCPServer, s *store.Store, allowlist map[string]bool) {
	// ─── contact_search (profile: agent) ───────────────────────────────
	if shouldRegister("contact_search", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_search",
				mcp.WithDescription("Search the user's contacts. Text matches first/last name, email and company case-insensitively, and phone numbers as typed. Call with no query to list everyone."),
				mcp.WithTitleAnnotation("Search Contacts"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("query", mcp.Description("Name, email, company or phone fragment")),
				mcp.WithString("tags", mcp.Description("Comma-separated tags; contacts with any of them match")),
				mcp.WithBoolean("favorite", mcp.Description("true for favorites only, false for non-favorites only")),
				mcp.WithString("sort_by",
					mcp.Description("Sort field"),
					mcp.Enum(store.SortFields()...),
				),
				mcp.WithString("sort_order", mcp.Description("asc (default) or desc"), mcp.Enum("asc", "desc")),
				mcp.WithNumber("limit", mcp.Description("Max results (default: 20)")),
			),
			handleSearch(s),
		)
	}

	// ─── contact_get (profile: agent) ──────────────────────────────────
	if shouldRegister("contact_get", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_get",
				mcp.WithDescription("Get the full record of one contact by id. Use after contact_search."),
				mcp.WithTitleAnnotation("Get Contact"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("id", mcp.Required(), mcp.Description("Contact id")),
			),
			handleGet(s),
		)
	}

	// ─── contact_save (profile: agent) ─────────────────────────────────
	if shouldRegister("contact_save", allowlist) {
		opts := []mcp.ToolOption{
			mcp.WithDescription("Save a new contact. First and last name are required; everything else is optional. Search first to avoid duplicates."),
			mcp.WithTitleAnnotation("Save Contact"),
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithString("first_name", mcp.Required(), mcp.Description("First name")),
			mcp.WithString("last_name", mcp.Required(), mcp.Description("Last name")),
		}
		srv.AddTool(mcp.NewTool("contact_save", append(opts, contactFields()...)...), handleSave(s))
	}

	// ─── contact_update (profile: agent) ───────────────────────────────
	if shouldRegister("contact_update", allowlist) {
		opts := []mcp.ToolOption{
			mcp.WithDescription("Update fields of an existing contact. Only the fields you pass change; pass an empty tags string to clear tags."),
			mcp.WithTitleAnnotation("Update Contact"),
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithString("id", mcp.Required(), mcp.Description("Contact id")),
			mcp.WithString("first_name", mcp.Description("First name")),
			mcp.WithString("last_name", mcp.Description("Last name")),
		}
		srv.AddTool(mcp.NewTool("contact_update", append(opts, contactFields()...)...), handleUpdate(s))
	}

	// ─── contact_favorite (profile: agent) ─────────────────────────────
	if shouldRegister("contact_favorite", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_favorite",
				mcp.WithDescription("Toggle the favorite flag of a contact."),
				mcp.WithTitleAnnotation("Toggle Favorite"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(false),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("id", mcp.Required(), mcp.Description("Contact id")),
			),
			handleFavorite(s),
		)
	}

	// ─── contact_capture (profile: agent) ──────────────────────────────
	if shouldRegister("contact_capture", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_capture",
				mcp.WithTitleAnnotation("Capture Contact From Text"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(false),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithDescription(`Extract a contact from free text (an email signature, business card, intro message) and save it.

Name, email, phone, company and title are picked up automatically. Set dry_run to preview the candidate without saving. If a name cannot be found, pass first_name/last_name explicitly.`),
				mcp.WithString("text", mcp.Required(), mcp.Description("The text to extract from")),
				mcp.WithString("first_name", mcp.Description("Override the extracted first name")),
				mcp.WithString("last_name", mcp.Description("Override the extracted last name")),
				mcp.WithString("tags", mcp.Description("Comma-separated tags to attach")),
				mcp.WithBoolean("dry_run", mcp.Description("Preview only (default: false)")),
			),
			handleCapture(s),
		)
	}

	// ─── contact_stats (profile: agent) ────────────────────────────────
	if shouldRegister("contact_stats", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_stats",
				mcp.WithDescription("Show how many contacts exist, how many are favorites or have an email/phone, and the count per tag."),
				mcp.WithTitleAnnotation("Contact Stats"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			handleStats(s),
		)
	}

	// ─── contact_delete (profile: admin) ───────────────────────────────
	if shouldRegister("contact_delete", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_delete",
				mcp.WithDescription("Permanently delete a contact by id."),
				mcp.WithTitleAnnotation("Delete Contact"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("id", mcp.Required(), mcp.Description("Contact id")),
			),
			handleDelete(s),
		)
	}

	// ─── contact_export (profile: admin) ───────────────────────────────
	if shouldRegister("contact_export", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_export",
				mcp.WithDescription("Export every contact as a pretty-printed JSON array."),
				mcp.WithTitleAnnotation("Export Contacts"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			handleExport(s),
		)
	}

	// ─── contact_import (profile: admin) ───────────────────────────────
	if shouldRegister("contact_import", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_import",
				mcp.WithDescription("Import contacts from a JSON array in export format. Records whose id already exists are skipped."),
				mcp.WithTitleAnnotation("Import Contacts"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("data", mcp.Required(), mcp.Description("JSON array of contacts")),
			),
			handleImport(s),
		)
	}

	// ─── contact_backup (profile: admin) ───────────────────────────────
	if shouldRegister("contact_backup", allowlist) {
		srv.AddTool(
			mcp.NewTool("contact_backup",
				mcp.WithDescription("Write a snapshot of all contacts to the backup directory."),
				mcp.WithTitleAnnotation("Backup Contacts"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(false),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			handleBackup(s),
		)
	}
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleSearch(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		query, _ := args["query"].(string)
		tags, _ := args["tags"].(string)
		sortBy, _ := args["sort_by"].(string)
		sortOrder, _ := args["sort_order"].(string)
		limit := intArg(req, "limit", 20)

		f := store.SearchFilters{
			Search:    query,
			Tags:      splitTags(tags),
			SortBy:    sortBy,
			SortOrder: sortOrder,
		}
		if v, ok := args["favorite"].(bool); ok {
			f.IsFavorite = &v
		}

		results, err := s.Search(ctx, f)
		if err != nil {
			return mcp.NewToolResultError("Search error: " + err.Error()), nil
		}
		if len(results) == 0 {
			if query == "" {
				return mcp.NewToolResultText("No contacts found."), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("No contacts found for: %q", query)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d contacts:\n\n", len(results))
		for i, c := range results {
			if limit > 0 && i == limit {
				fmt.Fprintf(&b, "... %d more, narrow the search\n", len(results)-limit)
				break
			}
			fmt.Fprintf(&b, "[%d] %s\n", i+1, summaryLine(&c))
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleGet(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		c, err := s.Get(ctx, id)
		if err != nil {
			return toolError("Failed to get contact", err), nil
		}
		return mcp.NewToolResultText(formatContact(c)), nil
	}
}

func handleSave(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		in := store.ContactInput{}
		in.FirstName, _ = args["first_name"].(string)
		in.LastName, _ = args["last_name"].(string)
		in.Email, _ = args["email"].(string)
		in.Phone, _ = args["phone"].(string)
		in.Company, _ = args["company"].(string)
		in.JobTitle, _ = args["job_title"].(string)
		in.Notes, _ = args["notes"].(string)
		in.Avatar, _ = args["avatar"].(string)
		if tags, ok := args["tags"].(string); ok {
			in.Tags = splitTags(tags)
		}

		if err := validate.Input(in); err != nil {
			return toolError("Invalid contact", err), nil
		}
		c, err := s.Create(ctx, in)
		if err != nil {
			return toolError("Failed to save", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Contact saved: %s %s (id: %s)", c.FirstName, c.LastName, c.ID)), nil
	}
}

func handleUpdate(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		id, _ := args["id"].(string)
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		p := store.ContactPatch{
			FirstName: stringPtrArg(args, "first_name"),
			LastName:  stringPtrArg(args, "last_name"),
			Email:     stringPtrArg(args, "email"),
			Phone:     stringPtrArg(args, "phone"),
			Company:   stringPtrArg(args, "company"),
			JobTitle:  stringPtrArg(args, "job_title"),
			Notes:     stringPtrArg(args, "notes"),
			Avatar:    stringPtrArg(args, "avatar"),
		}
		if tags, ok := args["tags"].(string); ok {
			p.Tags = splitTags(tags)
			if p.Tags == nil {
				p.Tags = []string{}
			}
		}
		if p.IsEmpty() {
			return mcp.NewToolResultError("provide at least one field to update"), nil
		}
		if err := validate.Patch(p); err != nil {
			return toolError("Invalid update", err), nil
		}

		c, err := s.Update(ctx, id, p)
		if err != nil {
			return toolError("Failed to update contact", err), nil
		}
		return mcp.NewToolResultText("Contact updated:\n" + formatContact(c)), nil
	}
}

func handleFavorite(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		c, err := s.ToggleFavorite(ctx, id)
		if err != nil {
			return toolError("Failed to toggle favorite", err), nil
		}
		state := "no longer a favorite"
		if c.IsFavorite {
			state = "now a favorite"
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s %s is %s", c.FirstName, c.LastName, state)), nil
	}
}

func handleCapture(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		text, _ := args["text"].(string)
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text is required: paste a signature, card or intro message"), nil
		}

		in := extractContact(text)
		if v, ok := args["first_name"].(string); ok && v != "" {
			in.FirstName = v
		}
		if v, ok := args["last_name"].(string); ok && v != "" {
			in.LastName = v
		}
		if tags, ok := args["tags"].(string); ok {
			in.Tags = splitTags(tags)
		}

		candidate := formatInput(in)
		if err := validate.Input(in); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Could not build a valid contact (%s). Extracted:\n%s", err, candidate)), nil
		}
		if boolArg(req, "dry_run", false) {
			return mcp.NewToolResultText("Candidate (not saved):\n" + candidate), nil
		}

		c, err := s.Create(ctx, in)
		if err != nil {
			return toolError("Failed to save", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Contact captured (id: %s):\n%s", c.ID, candidate)), nil
	}
}

func handleStats(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := loadMCPStats(ctx, s)
		if err != nil {
			return mcp.NewToolResultError("Failed to get stats: " + err.Error()), nil
		}

		tags := "none yet"
		if len(stats.ByTag) > 0 {
			tags = formatTagCounts(stats.ByTag)
		}
		result := fmt.Sprintf("Contact Stats:\n- Total: %d\n- Favorites: %d\n- With email: %d\n- With phone: %d\n- Tags: %s",
			stats.Total, stats.Favorites, stats.WithEmail, stats.WithPhone, tags)
		return mcp.NewToolResultText(result), nil
	}
}

func handleDelete(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		removed, err := s.Delete(ctx, id)
		if err != nil {
			return toolError("Failed to delete contact", err), nil
		}
		if !removed {
			return toolError("Failed to delete contact", store.ErrNotFound), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Contact %s deleted", id)), nil
	}
}

func handleExport(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := s.ExportAll(ctx)
		if err != nil {
			return toolError("Export failed", err), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleImport(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := req.GetArguments()["data"].(string)
		n, err := s.ImportBatch(ctx, []byte(data))
		if err != nil {
			return toolError("Import failed", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Imported %d contacts", n)), nil
	}
}

func handleBackup(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := s.Backup(ctx)
		if err != nil {
			return toolError("Backup failed", err), nil
		}
		return mcp.NewToolResultText("Backup written: " + name), nil
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func toolError(prefix string, err error) *mcp.CallToolResult {
	var verr *validate.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		return mcp.NewToolResultError(prefix + ": contact not found. Use contact_search to find the id.")
	case errors.As(err, &verr):
		return mcp.NewToolResultError(prefix + ": " + verr.Error())
	default:
		return mcp.NewToolResultError(prefix + ": " + err.Error())
	}
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func stringPtrArg(args map[string]any, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func summaryLine(c *store.Contact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", c.FirstName, c.LastName)
	if c.IsFavorite {
		b.WriteString(" ★")
	}
	if c.JobTitle != "" || c.Company != "" {
		fmt.Fprintf(&b, " — %s", strings.Trim(c.JobTitle+" @ "+c.Company, " @"))
	}
	if c.Email != "" {
		fmt.Fprintf(&b, " | %s", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(&b, " | %s", c.Phone)
	}
	fmt.Fprintf(&b, " (id: %s)", c.ID)
	return b.String()
}

func formatContact(c *store.Contact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\nID: %s\n", c.FirstName, c.LastName, c.ID)
	field := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, v)
		}
	}
	field("Email", c.Email)
	field("Phone", c.Phone)
	field("Company", c.Company)
	field("Title", c.JobTitle)
	if a := c.Address; a != nil {
		parts := []string{}
		for _, p := range []string{a.Street, a.City, a.State, a.ZipCode, a.Country} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		field("Address", strings.Join(parts, ", "))
	}
	if len(c.Tags) > 0 {
		field("Tags", strings.Join(c.Tags, ", "))
	}
	fmt.Fprintf(&b, "Favorite: %t\n", c.IsFavorite)
	field("Notes", truncate(c.Notes, 500))
	fmt.Fprintf(&b, "Created: %s\nUpdated: %s", c.CreatedAt.Format("2006-01-02 15:04"), c.UpdatedAt.Format("2006-01-02 15:04"))
	return b.String()
}

func formatInput(in store.ContactInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s %s", in.FirstName, in.LastName)
	for _, f := range []struct{ label, v string }{
		{"Email", in.Email}, {"Phone", in.Phone}, {"Company", in.Company}, {"Title", in.JobTitle},
	} {
		if f.v != "" {
			fmt.Fprintf(&b, "\n%s: %s", f.label, f.v)
		}
	}
	if len(in.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(in.Tags, ", "))
	}
	return b.String()
}

func formatTagCounts(byTag map[string]int) string {
	names := make([]string, 0, len(byTag))
	for tag := range byTag {
		names = append(names, tag)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, tag := range names {
		parts[i] = fmt.Sprintf("%s (%d)", tag, byTag[tag])
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
