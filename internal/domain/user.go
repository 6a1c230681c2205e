package domain

import "time"

type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

type User struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Password   string     `json:"-"`
	Role       Role       `json:"role"`
	Status     UserStatus `json:"status"`
	Department string     `json:"department,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// InitialStatus is the status a freshly registered account starts with.
func InitialStatus(role Role) UserStatus {
	if role == RoleOrganizer {
		return UserStatusPending
	}

	return UserStatusApproved
}

func (u User) IsApproved() bool {
	return u.Status == UserStatusApproved
}

// CanManage reports whether u may edit or delete a resource owned by ownerID.
func (u User) CanManage(ownerID uint) bool {
	return u.Role == RoleAdmin || u.ID == ownerID
}

// UserSummary is the public projection embedded in events and participant lists.
type UserSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Department: u.Department,
	}
}

type Stats struct {
	TotalUsers         int64 `json:"totalUsers"`
	TotalStudents      int64 `json:"totalStudents"`
	TotalOrganizers    int64 `json:"totalOrganizers"`
	PendingOrganizers  int64 `json:"pendingOrganizers"`
	TotalEvents        int64 `json:"totalEvents"`
	PendingEvents      int64 `json:"pendingEvents"`
	ApprovedEvents     int64 `json:"approvedEvents"`
	TotalRegistrations int64 `json:"totalRegistrations"`
}
