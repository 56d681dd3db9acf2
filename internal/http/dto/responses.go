package dto

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type SweepResponse struct {
	Cancelled int `json:"cancelled"`
}

type UserLookupResponse struct {
	VaultID string `json:"vault_id"`
	Name    string `json:"name"`
}
