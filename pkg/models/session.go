package models

// Session is the per-chat conversation state. It only holds drafts; an
// accepted ride is never stored here.
type Session struct {
	TelegramID int64  `json:"telegram_id"`
	DBID       int64  `json:"db_id"`
	DriverID   int64  `json:"driver_id"`
	State      string `json:"state"`
	Phone      string `json:"phone,omitempty"`

	Profile *DriverProfile `json:"profile,omitempty"`
	Upload  *UploadDraft   `json:"upload,omitempty"`
	Offer   *RideRequest   `json:"offer,omitempty"`
}

// UploadDraft collects one document across several messages. Images are kept
// as Telegram file ids until submission.
type UploadDraft struct {
	DocType     string `json:"doc_type"`
	DocNumber   string `json:"doc_number"`
	FrontFileID string `json:"front_file_id,omitempty"`
	BackFileID  string `json:"back_file_id,omitempty"`
}
