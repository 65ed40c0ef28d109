package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	RoleAdmin   = "admin"
	RoleFinance = "finance"
)

var loadEnvOnce sync.Once

func Config(key string) string {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️ .env file not found, reading from system environment variables")
		}
	})

	return os.Getenv(key)
}

type Settings struct {
	BotToken      string
	DatabaseURL   string
	MiniAppURL    string
	Port          string
	GroupID       int64
	Approvers     map[int64]string // identity -> role
	AdminIDs      []int64
	FinanceIDs    []int64
	JWTSecret     string
	DashboardHash string
	CloudinaryURL string
	PendingTTL    time.Duration
	ReminderAfter time.Duration
	BackupSpec    string
}

func Load() (Settings, error) {
	s := Settings{
		BotToken:      Config("BOT_TOKEN"),
		DatabaseURL:   Config("DATABASE_URL"),
		MiniAppURL:    Config("MINI_APP_URL"),
		Port:          orDefault(Config("PORT"), "3000"),
		JWTSecret:     Config("JWT_SECRET"),
		DashboardHash: Config("DASHBOARD_PASSWORD_HASH"),
		CloudinaryURL: Config("CLOUDINARY_URL"),
		BackupSpec:    orDefault(Config("BACKUP_SCHEDULE"), "0 */12 * * *"),
	}
	if s.BotToken == "" {
		return s, errors.New("BOT_TOKEN is required")
	}
	if s.DatabaseURL == "" {
		return s, errors.New("DATABASE_URL is required")
	}

	var err error
	if s.AdminIDs, err = ParseIDs(Config("ADMIN_IDS")); err != nil {
		return s, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	if s.FinanceIDs, err = ParseIDs(Config("FINANCE_IDS")); err != nil {
		return s, fmt.Errorf("FINANCE_IDS: %w", err)
	}
	s.Approvers = ApproverRoles(s.AdminIDs, s.FinanceIDs)
	if len(s.Approvers) == 0 {
		return s, errors.New("at least one of ADMIN_IDS or FINANCE_IDS is required")
	}

	if raw := Config("GROUP_ID"); raw != "" {
		if s.GroupID, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err != nil {
			return s, fmt.Errorf("GROUP_ID: %w", err)
		}
	}
	if raw := Config("PENDING_TTL"); raw != "" {
		if s.PendingTTL, err = time.ParseDuration(raw); err != nil {
			return s, fmt.Errorf("PENDING_TTL: %w", err)
		}
	}
	if raw := Config("RECEIPT_REMINDER"); raw != "" {
		if s.ReminderAfter, err = time.ParseDuration(raw); err != nil {
			return s, fmt.Errorf("RECEIPT_REMINDER: %w", err)
		}
	}
	return s, nil
}

// ParseIDs reads a comma separated list of platform identities. Blank input
// yields an empty list.
func ParseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ApproverRoles merges both lists; an identity present in both is an admin.
func ApproverRoles(admins, finance []int64) map[int64]string {
	roles := make(map[int64]string, len(admins)+len(finance))
	for _, id := range finance {
		roles[id] = RoleFinance
	}
	for _, id := range admins {
		roles[id] = RoleAdmin
	}
	return roles
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
