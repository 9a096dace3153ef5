package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lightdock/lightdock/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ErrNotFound is returned by lookup helpers when no matching row exists.
var ErrNotFound = gorm.ErrRecordNotFound

func Init() error {
	dbPath := config.Cfg.DatabasePath
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}

	if err := DB.AutoMigrate(&Server{}, &Setting{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	return nil
}

func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func GetSetting(key string) (string, error) {
	var s Setting
	if err := DB.Where("key = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func SetSetting(key, value string) error {
	return DB.Where("key = ?", key).Assign(Setting{Value: value}).FirstOrCreate(&Setting{Key: key}).Error
}

// Server helpers

// GetActiveServer returns the active server row, or (nil, nil) when no server
// is configured yet.
func GetActiveServer() (*Server, error) {
	var s Server
	if err := DB.Where("is_active = ?", true).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// SetActiveServer marks one row active and deactivates all others. The row
// is looked up first so an unknown id leaves the current selection untouched.
func SetActiveServer(id uint) (*Server, error) {
	var s Server
	if err := DB.First(&s, id).Error; err != nil {
		return nil, err
	}
	if err := DB.Model(&Server{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	if err := DB.Model(&s).Update("is_active", true).Error; err != nil {
		return nil, err
	}
	s.IsActive = true
	return &s, nil
}

// CreateServer inserts a new server row. The first configured server becomes
// active automatically.
func CreateServer(s *Server) error {
	var count int64
	if err := DB.Model(&Server{}).Count(&count).Error; err != nil {
		return err
	}
	s.IsActive = count == 0
	return DB.Create(s).Error
}

// DeleteServer removes a server row. When the active server is deleted, any
// remaining row is promoted so the dashboard never ends up without an active
// endpoint while servers still exist.
func DeleteServer(id uint) error {
	var s Server
	if err := DB.First(&s, id).Error; err != nil {
		return err
	}
	wasActive := s.IsActive
	if err := DB.Delete(&Server{}, id).Error; err != nil {
		return err
	}
	if wasActive {
		var remaining Server
		if err := DB.Order("id").First(&remaining).Error; err == nil {
			if _, err := SetActiveServer(remaining.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func ListServers() ([]Server, error) {
	var servers []Server
	if err := DB.Order("id").Find(&servers).Error; err != nil {
		return nil, err
	}
	return servers, nil
}
