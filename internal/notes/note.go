package notes

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength   = 255
	MaxContentLength = 10000

	DefaultPageSize = 100
	MinPageSize     = 1
	MaxPageSize     = 100
)

// Note is the stored representation returned to callers.
type Note struct {
	ID        int64     `json:"id" doc:"Note ID" example:"1"`
	Title     string    `json:"title" doc:"Note title" example:"My First Note"`
	Content   string    `json:"content" doc:"Note content" example:"Note content here"`
	CreatedAt time.Time `json:"created_at" doc:"Timestamp when note was created"`
	UpdatedAt time.Time `json:"updated_at" doc:"Timestamp when note was last updated"`
}

// NoteCreate is the full representation used for creation and full replacement.
type NoteCreate struct {
	_       struct{} `json:"-" additionalProperties:"true"`
	Title   string   `json:"title" minLength:"1" doc:"Note title, 1-255 characters after trimming surrounding whitespace" example:"My First Note"`
	Content string   `json:"content,omitempty" maxLength:"10000" doc:"Note content" example:"This is the content of my note"`
}

// NotePatch is the partial representation. Nil fields are left untouched.
type NotePatch struct {
	_       struct{} `json:"-" additionalProperties:"true"`
	Title   *string  `json:"title,omitempty" minLength:"1" doc:"Note title, 1-255 characters after trimming surrounding whitespace" example:"Updated Note Title"`
	Content *string  `json:"content,omitempty" maxLength:"10000" doc:"Note content" example:"Updated note content"`
}

// Validate checks the full representation.
func (c NoteCreate) Validate() error {
	var violations []FieldViolation
	violations = appendTitleViolations(violations, c.Title)
	violations = appendContentViolations(violations, c.Content)
	return newValidationError(violations)
}

// AsPatch converts the full representation into a patch carrying every mutable field.
func (c NoteCreate) AsPatch() NotePatch {
	title, content := c.Title, c.Content
	return NotePatch{Title: &title, Content: &content}
}

// Validate checks the fields present in the patch.
func (p NotePatch) Validate() error {
	var violations []FieldViolation
	if p.Title != nil {
		violations = appendTitleViolations(violations, *p.Title)
	}
	if p.Content != nil {
		violations = appendContentViolations(violations, *p.Content)
	}
	return newValidationError(violations)
}

func (p NotePatch) validateFull() error {
	if p.Title == nil {
		return newValidationError([]FieldViolation{{Field: "title", Reason: "field required"}})
	}
	return p.Validate()
}

type fieldChange struct {
	column string
	value  any
}

// changes lists the column assignments the patch implies. A full update assigns every
// mutable column, defaulting content to the empty string.
func (p NotePatch) changes(full bool) []fieldChange {
	var changes []fieldChange

	if p.Title != nil {
		changes = append(changes, fieldChange{column: "title", value: normalizeTitle(*p.Title)})
	}

	switch {
	case p.Content != nil:
		changes = append(changes, fieldChange{column: "content", value: *p.Content})
	case full:
		changes = append(changes, fieldChange{column: "content", value: ""})
	}

	return changes
}

// normalizeTitle strips surrounding whitespace; titles are validated and stored trimmed.
func normalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

func appendTitleViolations(violations []FieldViolation, title string) []FieldViolation {
	title = normalizeTitle(title)
	switch {
	case title == "":
		return append(violations, FieldViolation{Field: "title", Reason: "title must not be empty"})
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return append(violations, FieldViolation{Field: "title", Reason: "title must be at most 255 characters"})
	}
	return violations
}

func appendContentViolations(violations []FieldViolation, content string) []FieldViolation {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return append(violations, FieldViolation{Field: "content", Reason: "content must be at most 10000 characters"})
	}
	return violations
}
