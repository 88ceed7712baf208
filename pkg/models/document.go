package models

import "time"

// DocumentRecord mirrors the upload state of one checklist category.
type DocumentRecord struct {
	DriverID  int64     `json:"driver_id"`
	Category  string    `json:"category"`
	Uploaded  bool      `json:"uploaded"`
	DocNumber string    `json:"doc_number"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentUpload is one front/back image pair plus its number, ready for multipart submission.
type DocumentUpload struct {
	DriverID   int64
	DocType    string
	DocNumber  string
	FrontName  string
	FrontImage []byte
	BackName   string
	BackImage  []byte
}

// StatusMessage is the generic {message} body the backend answers mutations with.
type StatusMessage struct {
	Message string `json:"message"`
}
