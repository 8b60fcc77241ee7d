package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caseflow-dev/caseflow/internal/models"
)

func CreateProject(dbConn *gorm.DB, name, description string, actorID uint) (models.Project, error) {
	project := models.Project{
		Name:        name,
		Description: description,
		CreatedByID: actorID,
		UpdatedByID: actorID,
	}

	err := dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return logActivity(tx, actorID, "project.created", "project", project.ID, map[string]interface{}{"name": name})
	})

	return project, err
}

func GetProject(dbConn *gorm.DB, id uint) (models.Project, error) {
	var project models.Project

	if err := dbConn.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return project, ErrNotFound
		}
		return project, err
	}

	return project, nil
}

// ListProjectsFor returns every project for admins and only granted projects
// for testers.
func ListProjectsFor(dbConn *gorm.DB, userID uint, isAdmin bool) ([]models.Project, error) {
	var projects []models.Project

	query := dbConn.Order("projects.created_at DESC")

	if !isAdmin {
		query = query.
			Joins("JOIN project_access_grants ON project_access_grants.project_id = projects.id").
			Where("project_access_grants.user_id = ? AND project_access_grants.deleted_at IS NULL", userID)
	}

	err := query.Find(&projects).Error
	return projects, err
}

func UpdateProject(dbConn *gorm.DB, id uint, name, description string, actorID uint) (models.Project, error) {
	var project models.Project

	err := dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		project.Name = name
		project.Description = description
		project.UpdatedByID = actorID

		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		return logActivity(tx, actorID, "project.updated", "project", project.ID, nil)
	})

	return project, err
}

// DeleteProject removes the project and everything under it: executions,
// assignments, test cases, access grants, then the project row. The cascade is
// explicit and ordered so it holds on backends without ON DELETE CASCADE.
func DeleteProject(dbConn *gorm.DB, id uint, actorID uint) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		var project models.Project

		if err := tx.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var caseIDs []uint

		if err := tx.Model(&models.TestCase{}).Where("project_id = ?", id).Pluck("id", &caseIDs).Error; err != nil {
			return err
		}

		if len(caseIDs) > 0 {
			if err := tx.Where("test_case_id IN ?", caseIDs).Delete(&models.TestExecution{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("test_case_id IN ?", caseIDs).Delete(&models.TestCaseAssignment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", id).Delete(&models.TestCase{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&models.ProjectAccessGrant{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&project).Error; err != nil {
			return err
		}

		return logActivity(tx, actorID, "project.deleted", "project", id, map[string]interface{}{"name": project.Name})
	})
}

// GrantProjectAccess adds access grants for the given users. Duplicate ids and
// already-granted users are no-ops keyed on the (user, project) unique pair.
func GrantProjectAccess(dbConn *gorm.DB, projectID uint, userIDs []uint, grantedBy uint) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		if _, err := GetProject(tx, projectID); err != nil {
			return err
		}

		for _, userID := range dedupe(userIDs) {
			grant := models.ProjectAccessGrant{
				UserID:      userID,
				ProjectID:   projectID,
				GrantedByID: grantedBy,
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "project_id"}},
				DoNothing: true,
			}).Create(&grant).Error

			if err != nil {
				return err
			}
		}

		return logActivity(tx, grantedBy, "project.testers_granted", "project", projectID, map[string]interface{}{"user_ids": userIDs})
	})
}

func RevokeProjectAccess(dbConn *gorm.DB, projectID, userID, actorID uint) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().
			Where("project_id = ? AND user_id = ?", projectID, userID).
			Delete(&models.ProjectAccessGrant{})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return logActivity(tx, actorID, "project.tester_revoked", "project", projectID, map[string]interface{}{"user_id": userID})
	})
}

// ListProjectTesters returns the users granted access to a project.
func ListProjectTesters(dbConn *gorm.DB, projectID uint) ([]models.User, error) {
	var users []models.User

	err := dbConn.
		Joins("JOIN project_access_grants ON project_access_grants.user_id = users.id").
		Where("project_access_grants.project_id = ? AND project_access_grants.deleted_at IS NULL", projectID).
		Order("users.name").
		Find(&users).Error

	return users, err
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))

	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	return out
}
