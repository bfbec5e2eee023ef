package model

import "time"

type ShareLink struct {
	ShareLink string    `json:"shareLink"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
