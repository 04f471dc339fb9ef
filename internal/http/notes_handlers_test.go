package http

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"notes/app/internal/notes"
	applog "notes/app/internal/platform/log"
)

type noteBody struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type validationBody struct {
	Detail []FieldError `json:"detail"`
	Type   string       `json:"type"`
}

func TestCreateNoteReturns201(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "POST", "/v1/notes/", `{"title":"Test Note","content":"hi"}`)

	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var note noteBody
	decodeBody(t, rec, &note)

	if note.ID <= 0 {
		t.Fatalf("expected a positive id, got %d", note.ID)
	}
	if note.Title != "Test Note" || note.Content != "hi" {
		t.Fatalf("unexpected note: %+v", note)
	}
	if !note.CreatedAt.Equal(note.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at, got %s and %s", note.CreatedAt, note.UpdatedAt)
	}
}

func TestCreateNoteDefaultsContent(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "POST", "/v1/notes/", `{"title":"Minimal"}`)

	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeObject(t, rec)
	if content, ok := body["content"]; !ok || content != "" {
		t.Fatalf("expected empty content in response, got %v", body)
	}
}

func TestCreateNoteIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "POST", "/v1/notes/", `{"title":"Extra","tags":["a"]}`)

	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateNoteRejectsInvalidBodies(t *testing.T) {
	t.Parallel()

	longTitle := strings.Repeat("a", notes.MaxTitleLength+1)
	longContent := strings.Repeat("b", notes.MaxContentLength+1)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing title", body: `{"content":"no title"}`, field: "title"},
		{name: "empty title", body: `{"title":""}`, field: "title"},
		{name: "blank title", body: `{"title":"   "}`, field: "title"},
		{name: "title too long", body: fmt.Sprintf(`{"title":%q}`, longTitle), field: "title"},
		{name: "content too long", body: fmt.Sprintf(`{"title":"ok","content":%q}`, longContent), field: "content"},
		{name: "wrong type", body: `{"title":42}`, field: "title"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newNotesServer(t)
			rec := serve(srv, "POST", "/v1/notes/", tc.body)

			if rec.Code != 422 {
				t.Fatalf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
			}
			assertFieldError(t, rec.Body.Bytes(), "body", tc.field)
		})
	}
}

func TestCreateNoteAcceptsBoundaryLengths(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	title := strings.Repeat("é", notes.MaxTitleLength)
	content := strings.Repeat("x", notes.MaxContentLength)

	rec := serve(srv, "POST", "/v1/notes/", fmt.Sprintf(`{"title":%q,"content":%q}`, title, content))

	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateNoteTrimsTitleBeforeLengthCheck(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	title := strings.Repeat("a", notes.MaxTitleLength)

	rec := serve(srv, "POST", "/v1/notes/", fmt.Sprintf(`{"title":%q}`, "   "+title+"   "))

	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var note noteBody
	decodeBody(t, rec, &note)
	if note.Title != title {
		t.Fatalf("expected trimmed title of %d characters, got %d", len(title), len(note.Title))
	}
}

func TestPostToNoteItemReturns405(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "POST", "/v1/notes/42", `{"title":"Wrong place"}`)

	if rec.Code != 405 {
		t.Fatalf("expected status 405, got %d: %s", rec.Code, rec.Body.String())
	}
	if allow := rec.Header().Get("Allow"); strings.Contains(allow, "POST") || !strings.Contains(allow, "PATCH") {
		t.Fatalf("unexpected Allow header %q", allow)
	}

	list := serve(srv, "GET", "/v1/notes/", "")
	var items []noteBody
	decodeBody(t, list, &items)
	if len(items) != 0 {
		t.Fatalf("expected no note to be created, got %+v", items)
	}
}

func TestNestedNotePathsReturn404(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	createNote(t, srv, `{"title":"Existing"}`)

	cases := []struct {
		method string
		target string
	}{
		{method: "GET", target: "/v1/notes/1/extra"},
		{method: "POST", target: "/v1/notes/a/b/c"},
		{method: "DELETE", target: "/v1/notes/1/"},
	}

	for _, tc := range cases {
		rec := serve(srv, tc.method, tc.target, "")
		if rec.Code != 404 {
			t.Fatalf("%s %s: expected status 404, got %d: %s", tc.method, tc.target, rec.Code, rec.Body.String())
		}
		if detail := decodeObject(t, rec)["detail"]; detail != "Not Found" {
			t.Fatalf("%s %s: unexpected detail %v", tc.method, tc.target, detail)
		}
	}
}

func TestGetNoteReturnsStoredNote(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Fetch me","content":"body"}`)

	rec := serve(srv, "GET", fmt.Sprintf("/v1/notes/%d", created.ID), "")
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var note noteBody
	decodeBody(t, rec, &note)
	if note.ID != created.ID || note.Title != "Fetch me" || note.Content != "body" {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestGetMissingNoteReturns404(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "GET", "/v1/notes/999", "")

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	body := decodeObject(t, rec)
	if body["detail"] != "Note with ID 999 not found" {
		t.Fatalf("unexpected detail: %v", body["detail"])
	}
	if _, ok := body["type"]; ok {
		t.Fatalf("expected no type key on a 404, got %v", body)
	}
}

func TestNonNumericIDReturns422(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	for _, method := range []string{"GET", "DELETE"} {
		rec := serve(srv, method, "/v1/notes/abc", "")
		if rec.Code != 422 {
			t.Fatalf("%s: expected status 422, got %d", method, rec.Code)
		}
		assertFieldError(t, rec.Body.Bytes(), "path", "id")
	}
}

func TestListNotesNewestFirstWithPagination(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	for i := 1; i <= 3; i++ {
		createNote(t, srv, fmt.Sprintf(`{"title":"Note %d"}`, i))
	}

	rec := serve(srv, "GET", "/v1/notes/", "")
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var all []noteBody
	decodeBody(t, rec, &all)
	if len(all) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(all))
	}
	if all[0].Title != "Note 3" || all[2].Title != "Note 1" {
		t.Fatalf("expected newest first, got %q ... %q", all[0].Title, all[2].Title)
	}

	rec = serve(srv, "GET", "/v1/notes/?skip=1&limit=1", "")
	var page []noteBody
	decodeBody(t, rec, &page)
	if len(page) != 1 || page[0].Title != "Note 2" {
		t.Fatalf("unexpected page: %+v", page)
	}

	rec = serve(srv, "GET", "/v1/notes/?skip=10", "")
	if rec.Code != 200 || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list past the end, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestListNotesEmptyStoreReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "GET", "/v1/notes/", "")

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", rec.Body.String())
	}
}

func TestListNotesRejectsOutOfRangePagination(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/v1/notes/?skip=-1":    "skip",
		"/v1/notes/?limit=0":    "limit",
		"/v1/notes/?limit=101":  "limit",
		"/v1/notes/?limit=many": "limit",
	}

	srv := newNotesServer(t)
	for target, field := range cases {
		rec := serve(srv, "GET", target, "")
		if rec.Code != 422 {
			t.Fatalf("%s: expected status 422, got %d", target, rec.Code)
		}
		assertFieldError(t, rec.Body.Bytes(), "query", field)
	}
}

func TestReplaceNoteResetsOmittedContent(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Original","content":"hi"}`)
	target := fmt.Sprintf("/v1/notes/%d", created.ID)

	rec := serve(srv, "PUT", target, `{"title":"Replaced"}`)
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var note noteBody
	decodeBody(t, rec, &note)
	if note.Title != "Replaced" || note.Content != "" {
		t.Fatalf("unexpected note after replace: %+v", note)
	}
	if !note.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected created_at to be unchanged")
	}
	if !note.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance, got %s then %s", created.UpdatedAt, note.UpdatedAt)
	}
}

func TestReplaceNoteRequiresTitle(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Original"}`)

	rec := serve(srv, "PUT", fmt.Sprintf("/v1/notes/%d", created.ID), `{"content":"only content"}`)
	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	assertFieldError(t, rec.Body.Bytes(), "body", "title")
}

func TestReplaceMissingNoteReturns404(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "PUT", "/v1/notes/42", `{"title":"Nobody"}`)

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestPatchNoteUpdatesOnlyPresentFields(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Original","content":"keep me"}`)
	target := fmt.Sprintf("/v1/notes/%d", created.ID)

	rec := serve(srv, "PATCH", target, `{"title":"Renamed"}`)
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var note noteBody
	decodeBody(t, rec, &note)
	if note.Title != "Renamed" || note.Content != "keep me" {
		t.Fatalf("unexpected note after patch: %+v", note)
	}
	if !note.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}
}

func TestPatchNoteWithEmptyBodyTouchesTimestamp(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Original","content":"same"}`)

	rec := serve(srv, "PATCH", fmt.Sprintf("/v1/notes/%d", created.ID), `{}`)
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var note noteBody
	decodeBody(t, rec, &note)
	if note.Title != "Original" || note.Content != "same" {
		t.Fatalf("expected fields to be unchanged, got %+v", note)
	}
	if !note.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}
}

func TestPatchNoteRejectsEmptyTitle(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Original"}`)

	rec := serve(srv, "PATCH", fmt.Sprintf("/v1/notes/%d", created.ID), `{"title":""}`)
	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	assertFieldError(t, rec.Body.Bytes(), "body", "title")
}

func TestPatchNoteWithoutBodyReturns422(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Original"}`)

	rec := serve(srv, "PATCH", fmt.Sprintf("/v1/notes/%d", created.ID), "")
	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var body validationBody
	decodeBody(t, rec, &body)
	if len(body.Detail) == 0 || len(body.Detail[0].Loc) == 0 || body.Detail[0].Loc[0] != "body" {
		t.Fatalf("expected a body field error, got %s", rec.Body.String())
	}
}

func TestPatchMissingNoteReturns404(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	rec := serve(srv, "PATCH", "/v1/notes/7", `{"content":"x"}`)

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestDeleteNoteThenGetReturns404(t *testing.T) {
	t.Parallel()

	srv := newNotesServer(t)
	created := createNote(t, srv, `{"title":"Short lived"}`)
	target := fmt.Sprintf("/v1/notes/%d", created.ID)

	rec := serve(srv, "DELETE", target, "")
	if rec.Code != 204 {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}

	if rec := serve(srv, "GET", target, ""); rec.Code != 404 {
		t.Fatalf("expected status 404 after delete, got %d", rec.Code)
	}
	if rec := serve(srv, "DELETE", target, ""); rec.Code != 404 {
		t.Fatalf("expected status 404 on second delete, got %d", rec.Code)
	}
}

func newNotesServer(t *testing.T) *Server {
	t.Helper()

	gormDB := openTestDatabase(t)
	logger := applog.Discard()

	if err := notes.Migrate(context.Background(), gormDB, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := notes.NewRepository(gormDB, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return newTestServerWithOptions(t, Options{Notes: repo, Database: gormDB, Logger: logger})
}

func createNote(t *testing.T, srv *Server, body string) noteBody {
	t.Helper()

	rec := serve(srv, "POST", "/v1/notes/", body)
	if rec.Code != 201 {
		t.Fatalf("creating note failed with %d: %s", rec.Code, rec.Body.String())
	}

	var note noteBody
	decodeBody(t, rec, &note)
	return note
}

func assertFieldError(t *testing.T, raw []byte, source, field string) {
	t.Helper()

	var body validationBody
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("expected a field error list, got %q: %v", raw, err)
	}
	if body.Type != "" {
		t.Fatalf("expected no type key on a 422, got %q", body.Type)
	}

	for _, item := range body.Detail {
		if len(item.Loc) >= 2 && item.Loc[0] == source && item.Loc[len(item.Loc)-1] == field {
			if item.Msg == "" {
				t.Fatalf("expected a message for %s.%s", source, field)
			}
			return
		}
	}

	t.Fatalf("expected a field error at %s.%s, got %s", source, field, raw)
}
