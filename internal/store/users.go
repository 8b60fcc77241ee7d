package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/caseflow-dev/caseflow/internal/models"
)

// NormalizeEmail lowercases and trims so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailTaken reports whether another user already holds the email. excludeID
// skips the user being edited.
func EmailTaken(dbConn *gorm.DB, email string, excludeID uint) (bool, error) {
	var count int64

	query := dbConn.Model(&models.User{}).Where("email = ?", NormalizeEmail(email))

	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}

	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func CreateUser(dbConn *gorm.DB, user *models.User, actorID uint) error {
	user.Email = NormalizeEmail(user.Email)

	return dbConn.Transaction(func(tx *gorm.DB) error {
		taken, err := EmailTaken(tx, user.Email, 0)

		if err != nil {
			return err
		}

		if taken {
			return ErrDuplicateEmail
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		return logActivity(tx, actorID, "user.created", "user", user.ID, map[string]interface{}{"email": user.Email, "role": user.Role})
	})
}

func GetUser(dbConn *gorm.DB, id uint) (models.User, error) {
	var user models.User

	if err := dbConn.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrNotFound
		}
		return user, err
	}

	return user, nil
}

func GetUserByEmail(dbConn *gorm.DB, email string) (models.User, error) {
	var user models.User

	if err := dbConn.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrNotFound
		}
		return user, err
	}

	return user, nil
}

func ListUsers(dbConn *gorm.DB) ([]models.User, error) {
	var users []models.User

	err := dbConn.Order("created_at DESC").Find(&users).Error
	return users, err
}

func UpdateUser(dbConn *gorm.DB, id uint, updates map[string]interface{}, actorID uint) (models.User, error) {
	var user models.User

	err := dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if email, ok := updates["email"].(string); ok {
			normalized := NormalizeEmail(email)
			updates["email"] = normalized

			taken, err := EmailTaken(tx, normalized, id)

			if err != nil {
				return err
			}

			if taken {
				return ErrDuplicateEmail
			}
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		return logActivity(tx, actorID, "user.updated", "user", id, nil)
	})

	return user, err
}

// DeleteUser refuses while any assignment rows exist, regardless of whether
// executions were recorded. Assignments must be removed first so execution
// history is never orphaned by accident.
func DeleteUser(dbConn *gorm.DB, id uint, actorID uint) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		var user models.User

		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var assignments int64

		err := tx.Model(&models.TestCaseAssignment{}).
			Where("user_id = ?", id).
			Count(&assignments).Error

		if err != nil {
			return err
		}

		if assignments > 0 {
			return ErrHasAssignments
		}

		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&models.ProjectAccessGrant{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&user).Error; err != nil {
			return err
		}

		return logActivity(tx, actorID, "user.deleted", "user", id, map[string]interface{}{"email": user.Email})
	})
}
