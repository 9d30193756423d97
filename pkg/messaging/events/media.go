package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
)

type MediaUploadedEvent struct {
	Bucket      string    `json:"bucket"`
	Path        string    `json:"path"`
	PublicURL   string    `json:"public_url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func (e MediaUploadedEvent) Subject() string {
	return messaging.MediaUploadedSubject
}

func (e MediaUploadedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
