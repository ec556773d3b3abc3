package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/AbduSami-bK/contact-manager/internal/backup"
	"github.com/AbduSami-bK/contact-manager/internal/store"
	"github.com/AbduSami-bK/contact-manager/internal/validate"
)

func opErrors(codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Errors = codes }
}

func created(o *huma.Operation) { o.DefaultStatus = http.StatusCreated }

// apiError maps store, backup and validation errors onto HTTP problems.
func apiError(err error) error {
	var verr *validate.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound("contact not found", err)
	case errors.Is(err, backup.ErrNotFound):
		return huma.Error404NotFound("backup not found", err)
	case errors.As(err, &verr):
		return huma.Error422UnprocessableEntity(verr.Error(), err)
	case errors.Is(err, store.ErrMalformedImport):
		return huma.Error400BadRequest(store.ErrMalformedImport.Error(), err)
	case errors.Is(err, store.ErrNoArchive):
		return huma.Error503ServiceUnavailable(store.ErrNoArchive.Error(), err)
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}

type idInput struct {
	ID string `path:"id" doc:"Contact id"`
}

type contactOutput struct {
	Body *store.Contact
}

type contactsOutput struct {
	Body []store.Contact
}

// ─── Contacts ────────────────────────────────────────────────────────────────

type contactsAPI struct {
	store *store.Store
}

func (h *contactsAPI) register(api huma.API) {
	huma.Get(api, "/contacts", h.list, opErrors(http.StatusInternalServerError))
	huma.Post(api, "/contacts", h.create, created,
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError))
	huma.Delete(api, "/contacts", h.clear, opErrors(http.StatusInternalServerError))
	// search must be registered before /contacts/{id}
	huma.Get(api, "/contacts/search", h.search,
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError))
	huma.Get(api, "/contacts/{id}", h.get, opErrors(http.StatusNotFound))
	huma.Patch(api, "/contacts/{id}", h.update,
		opErrors(http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError))
	huma.Delete(api, "/contacts/{id}", h.del, opErrors(http.StatusNotFound, http.StatusInternalServerError))
	huma.Post(api, "/contacts/{id}/favorite", h.favorite,
		opErrors(http.StatusNotFound, http.StatusInternalServerError))
	huma.Get(api, "/stats", h.stats)
}

func (h *contactsAPI) list(ctx context.Context, _ *struct{}) (*contactsOutput, error) {
	contacts, err := h.store.List(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &contactsOutput{Body: contacts}, nil
}

func (h *contactsAPI) create(ctx context.Context, in *struct {
	Body store.ContactInput
}) (*contactOutput, error) {
	if err := validate.Input(in.Body); err != nil {
		return nil, apiError(err)
	}
	c, err := h.store.Create(ctx, in.Body)
	if err != nil {
		return nil, apiError(err)
	}
	return &contactOutput{Body: c}, nil
}

func (h *contactsAPI) get(ctx context.Context, in *idInput) (*contactOutput, error) {
	c, err := h.store.Get(ctx, in.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &contactOutput{Body: c}, nil
}

func (h *contactsAPI) update(ctx context.Context, in *struct {
	ID   string `path:"id" doc:"Contact id"`
	Body store.ContactPatch
}) (*contactOutput, error) {
	if err := validate.Patch(in.Body); err != nil {
		return nil, apiError(err)
	}
	c, err := h.store.Update(ctx, in.ID, in.Body)
	if err != nil {
		return nil, apiError(err)
	}
	return &contactOutput{Body: c}, nil
}

func (h *contactsAPI) del(ctx context.Context, in *idInput) (*struct{}, error) {
	removed, err := h.store.Delete(ctx, in.ID)
	if err != nil {
		return nil, apiError(err)
	}
	if !removed {
		return nil, apiError(store.ErrNotFound)
	}
	return nil, nil
}

func (h *contactsAPI) clear(ctx context.Context, _ *struct{}) (*struct{}, error) {
	return nil, apiError(h.store.ClearAll(ctx))
}

func (h *contactsAPI) favorite(ctx context.Context, in *idInput) (*contactOutput, error) {
	c, err := h.store.ToggleFavorite(ctx, in.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &contactOutput{Body: c}, nil
}

type searchInput struct {
	Q         string   `query:"q" doc:"Case-insensitive text matched against name, email and company, or a phone substring"`
	Tags      []string `query:"tags" doc:"Match contacts carrying any of these tags"`
	Favorite  string   `query:"favorite" enum:"true,false" doc:"Only favorites, or only non-favorites"`
	SortBy    string   `query:"sortBy" enum:"firstName,lastName,email,phone,company,jobTitle,createdAt,updatedAt"`
	SortOrder string   `query:"sortOrder" enum:"asc,desc"`
}

func (h *contactsAPI) search(ctx context.Context, in *searchInput) (*contactsOutput, error) {
	f := store.SearchFilters{
		Search:    in.Q,
		SortBy:    in.SortBy,
		SortOrder: in.SortOrder,
	}
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}
	if in.Favorite != "" {
		fav := in.Favorite == "true"
		f.IsFavorite = &fav
	}

	contacts, err := h.store.Search(ctx, f)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error(), err)
	}
	return &contactsOutput{Body: contacts}, nil
}

func (h *contactsAPI) stats(ctx context.Context, _ *struct{}) (*struct{ Body *store.Stats }, error) {
	st, err := h.store.Stats(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body *store.Stats }{Body: st}, nil
}

// ─── Transfer / backups / maintenance ────────────────────────────────────────

type adminAPI struct {
	store *store.Store
}

func (h *adminAPI) register(api huma.API) {
	huma.Get(api, "/export", h.export)
	huma.Post(api, "/import", h.importBatch, opErrors(http.StatusBadRequest, http.StatusInternalServerError))
	huma.Post(api, "/backups", h.backup, created,
		opErrors(http.StatusServiceUnavailable, http.StatusInternalServerError))
	huma.Get(api, "/backups", h.listBackups, opErrors(http.StatusServiceUnavailable))
	huma.Post(api, "/backups/{name}/restore", h.restore,
		opErrors(http.StatusNotFound, http.StatusServiceUnavailable, http.StatusInternalServerError))
	huma.Post(api, "/maintenance/vacuum", h.vacuum, opErrors(http.StatusInternalServerError))
	huma.Post(api, "/maintenance/analyze", h.analyze, opErrors(http.StatusInternalServerError))
}

type exportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (h *adminAPI) export(ctx context.Context, _ *struct{}) (*exportOutput, error) {
	data, err := h.store.ExportAll(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &exportOutput{
		ContentType:        "application/json",
		ContentDisposition: `attachment; filename="contacts.json"`,
		Body:               data,
	}, nil
}

type importOutput struct {
	Body struct {
		Imported int `json:"imported"`
	}
}

func (h *adminAPI) importBatch(ctx context.Context, in *struct {
	RawBody []byte `contentType:"application/json"`
}) (*importOutput, error) {
	n, err := h.store.ImportBatch(ctx, in.RawBody)
	if err != nil {
		return nil, apiError(err)
	}
	out := &importOutput{}
	out.Body.Imported = n
	return out, nil
}

type backupOutput struct {
	Body struct {
		Name string `json:"name"`
	}
}

func (h *adminAPI) backup(ctx context.Context, _ *struct{}) (*backupOutput, error) {
	name, err := h.store.Backup(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	out := &backupOutput{}
	out.Body.Name = name
	return out, nil
}

func (h *adminAPI) listBackups(ctx context.Context, _ *struct{}) (*struct{ Body []backup.Entry }, error) {
	entries, err := h.store.ListBackups(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	if entries == nil {
		entries = []backup.Entry{}
	}
	return &struct{ Body []backup.Entry }{Body: entries}, nil
}

func (h *adminAPI) restore(ctx context.Context, in *struct {
	Name string `path:"name" doc:"Backup name as returned by GET /api/backups"`
}) (*struct{}, error) {
	return nil, apiError(h.store.Restore(ctx, in.Name))
}

func (h *adminAPI) vacuum(ctx context.Context, _ *struct{}) (*struct{}, error) {
	return nil, apiError(h.store.Vacuum(ctx))
}

func (h *adminAPI) analyze(ctx context.Context, _ *struct{}) (*struct{}, error) {
	return nil, apiError(h.store.Analyze(ctx))
}
