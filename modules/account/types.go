package account

// Service names registered in the account module's container.
const (
	ServiceSignup    = "signup"
	ServiceLogin     = "login"
	ServiceListUsers = "list-users"
)

// SignupRequest is the request for signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse is the response for signup.
type SignupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginRequest is the request for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response for login.
type LoginResponse struct {
	Username string `json:"username"`
}

// ListUsersRequest is the request for list-users.
type ListUsersRequest struct{}

// ListUsersResponse is the response for list-users.
type ListUsersResponse struct {
	Usernames []string `json:"usernames"`
}
