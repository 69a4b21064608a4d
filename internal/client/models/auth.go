package models

// LoginRequest is the body of POST /auth/login/.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Client   string `json:"client"`
}

// LoginResponse is the body returned by POST /auth/login/.
type LoginResponse struct {
	Access string       `json:"access"`
	User   *UserProfile `json:"user"`
}
