package model

import "time"

type Template struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CodeURL     string    `json:"codeurl"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TemplatePatch is the set of fields an update writes. An empty CodeURL keeps the stored one.
type TemplatePatch struct {
	Title       string
	Description string
	Tags        []string
	CodeURL     string
	Language    string
}
