package dto

// LoginRequest identifies the caller by name.
type LoginRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// LoginResponse carries the signed access token.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}
