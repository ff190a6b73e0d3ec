package model

// Role names as stored in roles.description and carried in the JWT
// "role" claim.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"

    RoleUserID  uint8 = 1
    RoleAdminID uint8 = 2
)

// User represents a row of the `users` table joined with its role.
// PasswordHash never leaves the process.
type User struct {
    ID              uint64  `json:"id"`              // users.id
    FirstName       string  `json:"firstName"`       // users.first_name
    LastName        string  `json:"lastName"`        // users.last_name
    Email           string  `json:"email"`           // users.email, unique
    PasswordHash    string  `json:"-"`               // users.hashed_password
    AvatarReference *string `json:"avatarReference"` // users.avatar_reference
    RoleID          uint8   `json:"-"`               // users.role_id
    Role            string  `json:"role"`            // roles.description
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
