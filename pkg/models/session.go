package models

import "time"

type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeAdmin    UserType = "admin"
)

// Session is the logged-in user record kept in the session store.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	UserType   UserType  `json:"user_type"`
	Role       StaffRole `json:"role,omitempty"`
	Department string    `json:"department,omitempty"`
	LoginTime  time.Time `json:"login_time"`
}
