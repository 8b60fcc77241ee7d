package main

import (
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/caseflow-dev/caseflow/db"
	"github.com/caseflow-dev/caseflow/internal/auth"
	"github.com/caseflow-dev/caseflow/internal/logger"
	"github.com/caseflow-dev/caseflow/internal/models"
	"github.com/caseflow-dev/caseflow/internal/router"
	"github.com/caseflow-dev/caseflow/internal/store"
	"github.com/caseflow-dev/caseflow/internal/types"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	if err := logger.Init(); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := auth.InitJWTSecret(); err != nil {
		logger.Fatalf("%v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		logger.Fatalf("DATABASE_URL environment variable is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := seedAdmin(); err != nil {
		logger.Fatalf("Failed to seed admin user: %v", err)
	}

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		logger.Infof("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

// seedAdmin bootstraps the first admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Without one there is no way to create users, since
// registration is admin-only.
func seedAdmin() error {
	email := store.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")

	if email == "" || password == "" {
		return nil
	}

	if _, err := store.GetUserByEmail(db.DB, email); err == nil {
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return err
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         types.RoleAdmin,
		Status:       types.StatusActive,
	}

	if err := db.DB.Create(&admin).Error; err != nil {
		return err
	}

	logger.Infof("Seeded admin account %s", email)
	return nil
}
