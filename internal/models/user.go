package models

import "time"

// UserRole represents the available account roles.
type UserRole string

const (
	RoleAffiliate UserRole = "affiliate"
	RoleAdmin     UserRole = "admin"
)

// User represents an account stored in the users table. Affiliates carry a
// globally unique affiliate_code; admin accounts keep it NULL.
type User struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FullName      string    `db:"full_name" json:"full_name"`
	Role          UserRole  `db:"role" json:"role"`
	AffiliateCode *string   `db:"affiliate_code" json:"affiliate_code,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// UserInfo is the public projection embedded in auth responses.
type UserInfo struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FullName      string   `json:"full_name"`
	Role          UserRole `json:"role"`
	AffiliateCode *string  `json:"affiliate_code,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
