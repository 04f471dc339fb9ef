package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"

	"notes/app/internal/notes"
)

const (
	notesPath = "/" + apiPathVersion + "/notes"
	// noteItemMethods are the methods registered on notesPath + "/{id}".
	noteItemMethods = "DELETE, GET, HEAD, PATCH, PUT"
)

type createNoteInput struct {
	Body notes.NoteCreate
}

type listNotesInput struct {
	Skip  int `query:"skip" minimum:"0" default:"0" doc:"Number of notes to skip"`
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"100" doc:"Maximum number of notes to return"`
}

type noteIDInput struct {
	ID int64 `path:"id" doc:"Note ID"`
}

type replaceNoteInput struct {
	ID   int64 `path:"id" doc:"Note ID"`
	Body notes.NoteCreate
}

type patchNoteInput struct {
	ID   int64 `path:"id" doc:"Note ID"`
	Body notes.NotePatch
}

type noteOutput struct {
	Body *notes.Note
}

type noteListOutput struct {
	Body []notes.Note
}

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "create-note",
		Method:        stdhttp.MethodPost,
		Path:          notesPath + "/",
		Summary:       "Create a new note",
		Tags:          []string{"notes"},
		DefaultStatus: stdhttp.StatusCreated,
		Errors:        []int{stdhttp.StatusUnprocessableEntity, stdhttp.StatusInternalServerError},
	}, s.createNoteHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-notes",
		Method:      stdhttp.MethodGet,
		Path:        notesPath + "/",
		Summary:     "Get all notes",
		Description: "Retrieve notes with pagination, newest first.",
		Tags:        []string{"notes"},
		Errors:      []int{stdhttp.StatusUnprocessableEntity, stdhttp.StatusInternalServerError},
	}, s.listNotesHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-note",
		Method:      stdhttp.MethodGet,
		Path:        notesPath + "/{id}",
		Summary:     "Get a note by ID",
		Tags:        []string{"notes"},
		Errors:      noteItemErrors(),
	}, s.getNoteHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "replace-note",
		Method:      stdhttp.MethodPut,
		Path:        notesPath + "/{id}",
		Summary:     "Update a note (full update)",
		Description: "Replace every field of a note. Omitted content resets to an empty string.",
		Tags:        []string{"notes"},
		Errors:      noteItemErrors(),
	}, s.replaceNoteHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "patch-note",
		Method:      stdhttp.MethodPatch,
		Path:        notesPath + "/{id}",
		Summary:     "Partially update a note",
		Description: "Update only the fields present in the request body.",
		Tags:        []string{"notes"},
		Errors:      noteItemErrors(),
	}, s.patchNoteHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-note",
		Method:        stdhttp.MethodDelete,
		Path:          notesPath + "/{id}",
		Summary:       "Delete a note",
		Tags:          []string{"notes"},
		DefaultStatus: stdhttp.StatusNoContent,
		Errors:        noteItemErrors(),
	}, s.deleteNoteHandler)
}

func noteItemErrors() []int {
	return []int{
		stdhttp.StatusNotFound,
		stdhttp.StatusUnprocessableEntity,
		stdhttp.StatusInternalServerError,
	}
}

func (s *Server) createNoteHandler(ctx context.Context, input *createNoteInput) (*noteOutput, error) {
	note, err := s.notes.Create(ctx, input.Body)
	if err != nil {
		return nil, s.translateError(ctx, err, "creating note")
	}
	return &noteOutput{Body: note}, nil
}

func (s *Server) listNotesHandler(ctx context.Context, input *listNotesInput) (*noteListOutput, error) {
	items, err := s.notes.List(ctx, input.Skip, input.Limit)
	if err != nil {
		return nil, s.translateError(ctx, err, "listing notes")
	}
	if items == nil {
		items = []notes.Note{}
	}
	return &noteListOutput{Body: items}, nil
}

func (s *Server) getNoteHandler(ctx context.Context, input *noteIDInput) (*noteOutput, error) {
	note, err := s.notes.GetByID(ctx, input.ID)
	if err != nil {
		return nil, s.translateError(ctx, err, "loading note")
	}
	if note == nil {
		return nil, notFound(input.ID)
	}
	return &noteOutput{Body: note}, nil
}

func (s *Server) replaceNoteHandler(ctx context.Context, input *replaceNoteInput) (*noteOutput, error) {
	return s.updateNote(ctx, input.ID, input.Body.AsPatch(), true)
}

func (s *Server) patchNoteHandler(ctx context.Context, input *patchNoteInput) (*noteOutput, error) {
	return s.updateNote(ctx, input.ID, input.Body, false)
}

func (s *Server) updateNote(ctx context.Context, id int64, patch notes.NotePatch, full bool) (*noteOutput, error) {
	note, err := s.notes.Update(ctx, id, patch, full)
	if err != nil {
		return nil, s.translateError(ctx, err, "updating note")
	}
	if note == nil {
		return nil, notFound(id)
	}
	return &noteOutput{Body: note}, nil
}

func (s *Server) deleteNoteHandler(ctx context.Context, input *noteIDInput) (*struct{}, error) {
	deleted, err := s.notes.Delete(ctx, input.ID)
	if err != nil {
		return nil, s.translateError(ctx, err, "deleting note")
	}
	if !deleted {
		return nil, notFound(input.ID)
	}
	return &struct{}{}, nil
}
