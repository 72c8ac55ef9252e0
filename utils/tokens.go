package utils

// AccessToken carries the identity claims issued by the external user
// service. This core only verifies the signature; identity management
// itself lives outside it.
type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
}
