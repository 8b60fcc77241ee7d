package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

const (
	RoleAdmin  = "admin"
	RoleTester = "tester"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

var Priorities = []string{"low", "medium", "high", "critical"}

var Platforms = []string{"web", "app", "cms", "server"}

func ValidPriority(p string) bool {
	return contains(Priorities, p)
}

func ValidPlatform(p string) bool {
	return contains(Platforms, p)
}

func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleTester
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	AllowedOrigins = initAllowedOrigins()
)

func initAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
