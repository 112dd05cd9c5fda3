package api

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	IsPublic        bool   `json:"isPublic"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued token back to the client.
type TokenResponse struct {
	Token string `json:"token"`
}

// ProfileUpdateRequest is the body of PUT /profiles/me. Empty fields are
// left unchanged; IsPublic uses a pointer so "hide me" survives the trip.
type ProfileUpdateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ImageURL string `json:"imageUrl"`
	Bio      string `json:"bio"`
	Phone    int64  `json:"phone"`
	IsPublic *bool  `json:"isPublic"`
}

// BookRequest is the body of POST /books and PUT /books/{id}.
type BookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationYear int64  `json:"publicationYear"`
}

// MessageResponse is a plain informational response body.
type MessageResponse struct {
	Message string `json:"message"`
}
