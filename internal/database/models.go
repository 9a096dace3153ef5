package database

import (
	"fmt"
	"time"
)

// Server is one configured Docker endpoint. At most one row is active at a time.
type Server struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName string    `gorm:"not null;size:100" json:"display_name"`
	Host        string    `gorm:"size:255" json:"host"`
	Port        string    `gorm:"size:10" json:"port"`
	SSHUser     string    `gorm:"size:100" json:"ssh_user"`
	SSHPassword string    `json:"-"` // fernet-encrypted
	IsActive    bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsConfigured reports whether the server points at a remote daemon.
func (s *Server) IsConfigured() bool {
	return s.Host != "" && s.Port != ""
}

// Endpoint returns the Docker connection URL for this server. Servers without
// a host/port pair fall back to the local Unix socket.
func (s *Server) Endpoint() string {
	if s.IsConfigured() {
		return fmt.Sprintf("tcp://%s:%s", s.Host, s.Port)
	}
	return "unix:///var/run/docker.sock"
}

// Label is the human-readable name shown in the server picker.
func (s *Server) Label() string {
	switch {
	case s.IsConfigured():
		return fmt.Sprintf("%s (tcp://%s:%s)", s.DisplayName, s.Host, s.Port)
	case s.Host != "":
		return fmt.Sprintf("%s (%s)", s.DisplayName, s.Host)
	default:
		return fmt.Sprintf("%s (local)", s.DisplayName)
	}
}

type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
