package domain

// Principal is the authenticated operator behind a request. Username is the
// actor identity recorded on every mutation.
type Principal struct {
	Subject  string `json:"sub"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
