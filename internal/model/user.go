package model

import "time"

type User struct {
	ID        int        `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

const RoleAdmin = "admin"

// Actor 發出請求的使用者，由 middleware 從 token 解析後明確傳入 service
type Actor struct {
	UserID int
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess 使用者只能操作自己的訂單，管理員不受限
func (a Actor) CanAccess(order *Order) bool {
	return a.IsAdmin() || order.UserID == a.UserID
}
