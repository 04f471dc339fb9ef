package notes

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	opCreate  = "create"
	opList    = "list"
	opGetByID = "get"
	opUpdate  = "update"
	opDelete  = "delete"
)

// Repository is the only writer of the notes table. Mutations run inside a single
// transaction that is rolled back on any fault.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
}

// NewRepository constructs a Gorm-backed notes repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger, now: time.Now}, nil
}

// Create stores a new note with created_at equal to updated_at.
func (r *Repository) Create(ctx context.Context, input NoteCreate) (*Note, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := r.timestamp()
	record := &noteRecord{
		Title:     normalizeTitle(input.Title),
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, r.storageError(opCreate, err, nil)
	}

	r.logInfo(logrus.Fields{"note_id": record.ID}, "created note")
	return record.toDomain(), nil
}

// List returns up to limit notes after skipping skip, newest first.
func (r *Repository) List(ctx context.Context, skip, limit int) ([]Note, error) {
	var violations []FieldViolation
	if skip < 0 {
		violations = append(violations, FieldViolation{Field: "skip", Reason: "skip must be greater than or equal to 0"})
	}
	if limit < MinPageSize || limit > MaxPageSize {
		violations = append(violations, FieldViolation{Field: "limit", Reason: "limit must be between 1 and 100"})
	}
	if err := newValidationError(violations); err != nil {
		return nil, err
	}

	var records []noteRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, r.storageError(opList, err, logrus.Fields{"skip": skip, "limit": limit})
	}

	notes := make([]Note, 0, len(records))
	for i := range records {
		notes = append(notes, *records[i].toDomain())
	}

	return notes, nil
}

// GetByID returns the note with the given id or nil when none exists.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Note, error) {
	var record noteRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.storageError(opGetByID, err, logrus.Fields{"note_id": id})
	}

	return record.toDomain(), nil
}

// Update applies patch to the note with the given id and returns the reloaded row, or
// nil when no such note exists. A full update assigns every mutable field; a partial
// update assigns only the fields present in patch.
func (r *Repository) Update(ctx context.Context, id int64, patch NotePatch, full bool) (*Note, error) {
	validate := patch.Validate
	if full {
		validate = patch.validateFull
	}
	if err := validate(); err != nil {
		return nil, err
	}

	var updated *noteRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record noteRecord
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		changes := patch.changes(full)
		values := make(map[string]any, len(changes)+1)
		for _, change := range changes {
			values[change.column] = change.value
		}
		values["updated_at"] = r.nextUpdatedAt(record.UpdatedAt)

		if err := tx.Model(&record).Updates(values).Error; err != nil {
			return err
		}

		var reloaded noteRecord
		if err := tx.First(&reloaded, id).Error; err != nil {
			return err
		}
		updated = &reloaded
		return nil
	})
	if err != nil {
		return nil, r.storageError(opUpdate, err, logrus.Fields{"note_id": id, "full": full})
	}

	if updated == nil {
		return nil, nil
	}

	r.logInfo(logrus.Fields{"note_id": id, "full": full}, "updated note")
	return updated.toDomain(), nil
}

// Delete removes the note permanently and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&noteRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, r.storageError(opDelete, err, logrus.Fields{"note_id": id})
	}

	if deleted {
		r.logInfo(logrus.Fields{"note_id": id}, "deleted note")
	}
	return deleted, nil
}

// timestamp returns the current time at the microsecond precision every supported store keeps.
func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt never returns a value at or before previous, even when the clock has
// not advanced past the stored precision.
func (r *Repository) nextUpdatedAt(previous time.Time) time.Time {
	now := r.timestamp()
	if !now.After(previous) {
		now = previous.UTC().Add(time.Microsecond)
	}
	return now
}

func (r *Repository) storageError(op string, err error, fields logrus.Fields) error {
	wrapped := eris.Wrapf(err, "notes %s", op)

	if r.logger != nil {
		entry := r.logger.WithField("error", err.Error()).WithField("op", op)
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error("notes storage operation failed")
	}

	return &StorageError{Op: op, Err: wrapped}
}

func (r *Repository) logInfo(fields logrus.Fields, message string) {
	if r.logger == nil {
		return
	}
	r.logger.WithFields(fields).Info(message)
}
