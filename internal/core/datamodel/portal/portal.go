// Package portal holds the persistence models of per-client portal state.
package portal

import "time"

// DepartmentScope remembers the last department a client's roster resolved to.
type DepartmentScope struct {
	ClientID     string    `gorm:"column:client_id;primaryKey"`
	DepartmentID int64     `gorm:"column:department_id;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (DepartmentScope) TableName() string {
	return "department_scopes"
}

// ClientCredential is the bearer credential a client registered at session start.
type ClientCredential struct {
	ClientID  string    `db:"client_id"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
