// Package messaging implements the request/response vocabulary shared by the
// browser extension (over native messaging) and the HTTP /messages endpoint.
//
// A request names an action and carries optional id, data and query fields.
// Every request gets a Response; failures are reported in-band with
// success=false rather than as transport errors.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AbduSami-bK/contact-manager/internal/extract"
	"github.com/AbduSami-bK/contact-manager/internal/store"
	"github.com/AbduSami-bK/contact-manager/internal/validate"
)

// Actions understood by the dispatcher.
const (
	ActionGetContacts    = "getContacts"
	ActionGetContact     = "getContact"
	ActionSaveContact    = "saveContact"
	ActionUpdateContact  = "updateContact"
	ActionDeleteContact  = "deleteContact"
	ActionSearchContacts = "searchContacts"
	ActionGetStats       = "getStats"
	ActionExportContacts = "exportContacts"
	ActionImportContacts = "importContacts"
	ActionToggleFavorite = "toggleFavorite"
	ActionClearAll       = "clearAll"
	ActionBackup         = "backup"
	ActionRestore        = "restore"
	ActionListBackups    = "listBackups"
	ActionExtractContact = "extractContact"
)

// MsgNotFound is the error text reported for unknown contact ids.
const MsgNotFound = "Contact not found"

type Request struct {
	Action string          `json:"action"`
	ID     string          `json:"id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Query  json.RawMessage `json:"query,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ImportResult is the data of a successful importContacts response.
type ImportResult struct {
	Imported int `json:"imported"`
}

// BackupResult is the data of a successful backup response.
type BackupResult struct {
	Name string `json:"name"`
}

type Dispatcher struct {
	store *store.Store
	log   zerolog.Logger
}

func New(s *store.Store, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{store: s, log: log}
}

type handlerFunc func(ctx context.Context, d *Dispatcher, req Request) (any, error)

var handlers = map[string]handlerFunc{
	ActionGetContacts:    getContacts,
	ActionGetContact:     getContact,
	ActionSaveContact:    saveContact,
	ActionUpdateContact:  updateContact,
	ActionDeleteContact:  deleteContact,
	ActionSearchContacts: searchContacts,
	ActionGetStats:       getStats,
	ActionExportContacts: exportContacts,
	ActionImportContacts: importContacts,
	ActionToggleFavorite: toggleFavorite,
	ActionClearAll:       clearAll,
	ActionBackup:         backupNow,
	ActionRestore:        restore,
	ActionListBackups:    listBackups,
	ActionExtractContact: extractContact,
}

// Handle runs one request against the store.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	h, ok := handlers[req.Action]
	if !ok {
		return Response{Error: fmt.Sprintf("Unknown action: %s", req.Action)}
	}

	data, err := h(ctx, d, req)
	if err != nil {
		d.log.Debug().Err(err).Str("action", req.Action).Msg("message failed")
		return Response{Error: Message(err)}
	}
	return Response{Success: true, Data: data}
}

// HandleRaw decodes a JSON request and runs it.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Response{Error: fmt.Sprintf("invalid message: %v", err)}
	}
	return d.Handle(ctx, req)
}

// Message is the text reported to callers for err.
func Message(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return MsgNotFound
	}
	var verr *validate.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if errors.Is(err, store.ErrMalformedImport) {
		return store.ErrMalformedImport.Error()
	}
	return err.Error()
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func getContacts(ctx context.Context, d *Dispatcher, _ Request) (any, error) {
	return d.store.List(ctx)
}

func getContact(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	return d.store.Get(ctx, req.ID)
}

func saveContact(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	var in store.ContactInput
	if err := decode(req.Data, &in); err != nil {
		return nil, err
	}
	if err := validate.Input(in); err != nil {
		return nil, err
	}
	return d.store.Create(ctx, in)
}

func updateContact(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	var p store.ContactPatch
	if err := decode(req.Data, &p); err != nil {
		return nil, err
	}
	if err := validate.Patch(p); err != nil {
		return nil, err
	}
	return d.store.Update(ctx, req.ID, p)
}

func deleteContact(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	removed, err := d.store.Delete(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, store.ErrNotFound
	}
	return nil, nil
}

// searchContacts accepts either a filters object or a bare string used as
// the free-text query.
func searchContacts(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	var f store.SearchFilters
	q := bytes.TrimSpace(req.Query)
	switch {
	case len(q) == 0 || bytes.Equal(q, []byte("null")):
	case q[0] == '"':
		if err := json.Unmarshal(q, &f.Search); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
	default:
		if err := json.Unmarshal(q, &f); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
	}
	return d.store.Search(ctx, f)
}

func getStats(ctx context.Context, d *Dispatcher, _ Request) (any, error) {
	return d.store.Stats(ctx)
}

func exportContacts(ctx context.Context, d *Dispatcher, _ Request) (any, error) {
	data, err := d.store.ExportAll(ctx)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// importContacts takes the export text as a JSON string, or the array itself.
func importContacts(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	data := bytes.TrimSpace(req.Data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, store.ErrMalformedImport
		}
		data = []byte(text)
	}
	n, err := d.store.ImportBatch(ctx, data)
	if err != nil {
		return nil, err
	}
	return ImportResult{Imported: n}, nil
}

func toggleFavorite(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	return d.store.ToggleFavorite(ctx, req.ID)
}

func clearAll(ctx context.Context, d *Dispatcher, _ Request) (any, error) {
	return nil, d.store.ClearAll(ctx)
}

func backupNow(ctx context.Context, d *Dispatcher, _ Request) (any, error) {
	name, err := d.store.Backup(ctx)
	if err != nil {
		return nil, err
	}
	return BackupResult{Name: name}, nil
}

// restore takes the snapshot name in id.
func restore(ctx context.Context, d *Dispatcher, req Request) (any, error) {
	if req.ID == "" {
		return nil, errors.New("backup name is required")
	}
	return nil, d.store.Restore(ctx, req.ID)
}

func listBackups(ctx context.Context, d *Dispatcher, _ Request) (any, error) {
	return d.store.ListBackups(ctx)
}

// extractContact returns a candidate built from the text in data. Nothing is
// saved.
func extractContact(_ context.Context, _ *Dispatcher, req Request) (any, error) {
	var text string
	if err := decode(req.Data, &text); err != nil {
		return nil, err
	}
	return extract.FromText(text), nil
}

func decode(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("data is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}
