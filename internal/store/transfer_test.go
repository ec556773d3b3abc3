package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestExportIsIndentedArrayInListOrder(t *testing.T) {
	s := newTestStore(t)
	john := mustCreate(t, s, johnDoe())
	jane := mustCreate(t, s, janeSmith())

	data, err := s.ExportAll(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Fatalf("expected pretty-printed array, got %q", string(data)[:10])
	}

	var out []Contact
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("export is not a contact array: %v", err)
	}
	if !reflect.DeepEqual(ids(out), []string{john.ID, jane.ID}) {
		t.Fatalf("export order = %v", ids(out))
	}
}

func TestExportEmptyCollection(t *testing.T) {
	s := newTestStore(t)
	data, err := s.ExportAll(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [], got %s", data)
	}
}

func TestImportCountsOnlyNewIDs(t *testing.T) {
	s := newTestStore(t)
	existing := mustCreate(t, s, johnDoe())

	payload := `[
		{"id":"` + existing.ID + `","firstName":"Dup","lastName":"Licate","tags":[]},
		{"id":"n1","firstName":"New","lastName":"One","tags":["x"],"isFavorite":true,
		 "createdAt":"2020-05-01T10:00:00Z","updatedAt":"2021-05-01T10:00:00Z"},
		{"id":"n2","firstName":"New","lastName":"Two"}
	]`

	n, err := s.ImportBatch(context.Background(), []byte(payload))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported = %d, want 2", n)
	}

	all, _ := s.List(context.Background())
	if len(all) != 3 {
		t.Fatalf("collection size = %d, want 3", len(all))
	}

	kept, _ := s.Get(context.Background(), existing.ID)
	if kept.FirstName != "John" {
		t.Fatalf("colliding record must not overwrite, got %q", kept.FirstName)
	}

	n1, _ := s.Get(context.Background(), "n1")
	if !n1.IsFavorite || n1.CreatedAt.Year() != 2020 || n1.UpdatedAt.Year() != 2021 {
		t.Fatalf("records must be inserted verbatim, got %#v", n1)
	}
	n2, _ := s.Get(context.Background(), "n2")
	if n2.Tags == nil {
		t.Fatalf("missing tags should default to empty")
	}
}

func TestImportSkipsMissingIDsNonObjectsAndInBatchDuplicates(t *testing.T) {
	s, mem := newMemoryStore(t)

	payload := `[{"firstName":"No","lastName":"Id"}, 42, "text", null, {"id":"d","firstName":"A"}, {"id":"d","firstName":"B"}]`
	n, err := s.ImportBatch(context.Background(), []byte(payload))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported = %d, want 1", n)
	}
	got, _ := s.Get(context.Background(), "d")
	if got.FirstName != "A" {
		t.Fatalf("first record with an id wins, got %q", got.FirstName)
	}
	if mem.Saves() != 1 {
		t.Fatalf("import should persist once, got %d", mem.Saves())
	}
}

func TestImportNothingNewDoesNotWrite(t *testing.T) {
	s, mem := newMemoryStore(t)

	n, err := s.ImportBatch(context.Background(), []byte(`[]`))
	if err != nil || n != 0 {
		t.Fatalf("import empty: n=%d err=%v", n, err)
	}
	if mem.Saves() != 0 {
		t.Fatalf("empty import wrote to slot")
	}
}

func TestImportRejectsNonArrays(t *testing.T) {
	s, mem := newMemoryStore(t)

	for _, payload := range []string{`{"id":"x"}`, `null`, ``, `not json`, `[{"id":"x"}`, `"[]"`} {
		n, err := s.ImportBatch(context.Background(), []byte(payload))
		if !errors.Is(err, ErrMalformedImport) {
			t.Fatalf("payload %q: expected ErrMalformedImport, got %v", payload, err)
		}
		if n != 0 {
			t.Fatalf("payload %q: count = %d", payload, n)
		}
	}
	if mem.Saves() != 0 {
		t.Fatalf("malformed import must not write")
	}
	if ErrMalformedImport.Error() != "invalid import data format" {
		t.Fatalf("unexpected message %q", ErrMalformedImport.Error())
	}
}

func TestExportClearImportRestoresCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	in := johnDoe()
	in.Address = &Address{Street: "1 Main", ZipCode: "12345"}
	in.Notes = "likes tea"
	mustCreate(t, s, in)
	jane := mustCreate(t, s, janeSmith())
	if _, err := s.ToggleFavorite(ctx, jane.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	before, _ := s.List(ctx)
	exported, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	n, err := s.ImportBatch(ctx, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != len(before) {
		t.Fatalf("imported %d, want %d", n, len(before))
	}

	after, _ := s.List(ctx)
	byID := func(cs []Contact) []Contact {
		out := append([]Contact(nil), cs...)
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out
	}
	if !reflect.DeepEqual(byID(before), byID(after)) {
		t.Fatalf("round trip mismatch:\nbefore %#v\nafter  %#v", before, after)
	}
}
