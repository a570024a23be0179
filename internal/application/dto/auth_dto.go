package dto

// LoginRequest credenciales del personal.
type LoginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// LoginResponse token de acceso.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // segundos
	User      string `json:"user"`
	Role      string `json:"role"`
}
