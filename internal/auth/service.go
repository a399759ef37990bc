package auth

import (
	"lcfs-backend/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUserShape is the object stored in session and returned by /me.
type SessionUserShape struct {
	UserID   uint     `json:"user_id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	OrgID    *uint    `json:"organization_id"`
}

// LoginUser finds user by email and verifies password. Returns user for
// session or error.
func LoginUser(db *gorm.DB, input LoginInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := db.Where("email = ?", input.Email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if !u.IsActive || u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}

// Shape renders the session payload for a logged-in user.
func Shape(u *domain.User) *SessionUserShape {
	return &SessionUserShape{
		UserID:   u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Roles:    u.RoleList(),
		OrgID:    u.OrganizationID,
	}
}

// VerifyUser loads the user behind a session id and returns the /me shape.
func VerifyUser(db *gorm.DB, userID uint) (*SessionUserShape, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}
	var u domain.User
	if err := db.First(&u, userID).Error; err != nil {
		return nil, ErrNotAuthenticated
	}
	if !u.IsActive {
		return nil, ErrNotAuthenticated
	}
	return Shape(&u), nil
}
