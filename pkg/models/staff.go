package models

import "time"

// StaffRole enumerates staff roles. The first three are the admin console
// roles; the rest come from self-registration.
type StaffRole string

const (
	StaffRoleAdmin       StaffRole = "admin"
	StaffRoleManager     StaffRole = "manager"
	StaffRoleStaff       StaffRole = "staff"
	StaffRoleCashier     StaffRole = "cashier"
	StaffRoleStockkeeper StaffRole = "stockkeeper"
	StaffRoleDelivery    StaffRole = "delivery"
	StaffRoleSupervisor  StaffRole = "supervisor"
)

func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleAdmin, StaffRoleManager, StaffRoleStaff, StaffRoleCashier,
		StaffRoleStockkeeper, StaffRoleDelivery, StaffRoleSupervisor:
		return true
	}
	return false
}

type StaffStatus string

const (
	StaffStatusActive   StaffStatus = "active"
	StaffStatusInactive StaffStatus = "inactive"
)

type Staff struct {
	StaffID      string      `gorm:"primaryKey;type:varchar(16)" json:"staff_id"`
	Name         string      `gorm:"type:varchar(200);not null" json:"name"`
	FirstName    string      `gorm:"type:varchar(100)" json:"first_name,omitempty"`
	LastName     string      `gorm:"type:varchar(100)" json:"last_name,omitempty"`
	Email        string      `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"type:varchar(100);not null" json:"-"`
	Role         StaffRole   `gorm:"type:varchar(20);not null;index" json:"role"`
	Department   string      `gorm:"type:varchar(100)" json:"department,omitempty"`
	Phone        string      `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Status       StaffStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Notes        string      `gorm:"type:text" json:"notes,omitempty"`
	ApprovedBy   string      `gorm:"type:varchar(200)" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time  `json:"approved_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// StaffApplication is a self-registration waiting for an administrator.
type StaffApplication struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FirstName       string            `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName        string            `gorm:"type:varchar(100);not null" json:"last_name"`
	Email           string            `gorm:"type:varchar(100);not null;index" json:"email"`
	Phone           string            `gorm:"type:varchar(20)" json:"phone"`
	RequestedRole   StaffRole         `gorm:"type:varchar(20);not null" json:"requested_role"`
	Department      string            `gorm:"type:varchar(100)" json:"department"`
	SupervisorEmail string            `gorm:"type:varchar(100)" json:"supervisor_email"`
	EmployeeID      string            `gorm:"type:varchar(16)" json:"employee_id,omitempty"`
	PasswordHash    string            `gorm:"type:varchar(100);not null" json:"-"`
	Status          ApplicationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	ReviewedBy      string            `gorm:"type:varchar(200)" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
}

func (StaffApplication) TableName() string {
	return "staff_applications"
}
