package dto

type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateTransactionRequest struct {
	// ReceiverVID is the receiver's vault ID, the handle users share.
	ReceiverVID    string   `json:"receiver_vid"`
	Amount         string   `json:"amount"`
	Conditions     []string `json:"conditions"`
	TimeLimitHours int      `json:"time_limit_hours"`
}

type UpdateConditionRequest struct {
	Completed bool `json:"completed"`
}
