package models

import "time"

// Document is an uploaded file belonging to a course. Processing and
// indexing happen in the background after upload, so the flags below are
// what the UI polls on.
type Document struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"-"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	PageCount        int       `json:"page_count,omitempty"`
	CourseID         uint      `gorm:"index" json:"course_id"`
	IsProcessed      bool      `gorm:"default:false" json:"is_processed"`
	IsIndexed        bool      `gorm:"default:false" json:"is_indexed"`
	ProcessingError  string    `json:"processing_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DocumentChunk is one piece of a document's text, mirrored into the
// vector store under VectorID. Metadata is a JSON blob so the relational
// side never needs to understand it.
type DocumentChunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"index" json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	PageNumber int       `json:"page_number,omitempty"`
	VectorID   string    `json:"vector_id"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
