package domain

import "time"

// Attachment describes an uploaded file linked to a ticket. File bytes live
// outside the store; only metadata is persisted.
type Attachment struct {
	ID               int64     `json:"attachment_id"`
	TTNumber         string    `json:"tt_number"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	FilePath         string    `json:"file_path"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	UploadedBy       string    `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
}
