package models

import "time"

// ArchivedUpload is a raw ingestion upload kept for audit and replay.
type ArchivedUpload struct {
	RequestID  string    `json:"request_id"`
	Filename   string    `json:"filename"`
	Data       []byte    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
	// Location is filled in by the archive once stored.
	Location string `json:"location,omitempty"`
}
