package models

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether no further status change is expected.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s DocumentStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether moving from s to next goes forward:
// pending → processing → completed|failed. Staying put is allowed, moving
// back or sideways between the two terminal states is not.
func (s DocumentStatus) CanAdvanceTo(next DocumentStatus) bool {
	if next.rank() < 0 {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Document is a background processing job as listed by the service.
type Document struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"userId"`
	Filename       string         `json:"filename"`
	OriginalName   string         `json:"originalName"`
	FilePath       string         `json:"filePath,omitempty"`
	FileSize       int64          `json:"fileSize"`
	MimeType       string         `json:"mimeType"`
	Status         DocumentStatus `json:"status"`
	LineCount      int            `json:"lineCount"`
	ProcessedLines int            `json:"processedLines"`
	Progress       float64        `json:"progress,omitempty"`
	ExtractedText  string         `json:"extractedText,omitempty"`
	ErrorMessage   string         `json:"errorMessage,omitempty"`
	CreatedAt      string         `json:"createdAt"`
	UpdatedAt      string         `json:"updatedAt"`
	ProcessedAt    string         `json:"processedAt,omitempty"`
}

// ProcessingStatus is the payload of GET /documents/{id}/status.
type ProcessingStatus struct {
	ID             int64          `json:"id"`
	Status         DocumentStatus `json:"status"`
	LineCount      int            `json:"lineCount"`
	ProcessedLines int            `json:"processedLines"`
	Progress       float64        `json:"progress"`
	ErrorMessage   string         `json:"errorMessage,omitempty"`
	CompletedAt    string         `json:"completedAt,omitempty"`
}

// UploadResponse is the payload of POST /documents/upload.
type UploadResponse struct {
	ID           int64          `json:"id"`
	Filename     string         `json:"filename"`
	OriginalName string         `json:"originalName"`
	FileSize     int64          `json:"fileSize"`
	MimeType     string         `json:"mimeType"`
	Status       DocumentStatus `json:"status"`
	CreatedAt    string         `json:"createdAt"`
}
