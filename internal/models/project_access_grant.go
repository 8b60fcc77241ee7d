package models

import "gorm.io/gorm"

// ProjectAccessGrant links a tester to a project. Admins never need a grant
// row; the policy layer lets them through unconditionally.
type ProjectAccessGrant struct {
	gorm.Model

	UserID      uint `gorm:"not null;uniqueIndex:idx_grant_user_project"`
	ProjectID   uint `gorm:"not null;uniqueIndex:idx_grant_user_project"`
	GrantedByID uint `gorm:"not null"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
