package model

type IdentityUser struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Provider  string `json:"provider"`
}

type IdentityToken struct {
	AccessToken string       `json:"accessToken"`
	User        IdentityUser `json:"user"`
}
