package notes

import "time"

// noteRecord is the row persisted in the notes table. Timestamps are assigned by
// the repository so updated_at can be kept strictly increasing.
type noteRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"size:255;not null;index:idx_notes_title"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;index:idx_notes_created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName defines the table name for the note model.
func (noteRecord) TableName() string {
	return "notes"
}

func (r *noteRecord) toDomain() *Note {
	return &Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}
