package store

import "time"

type Document struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
