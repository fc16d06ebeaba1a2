package config

import "testing"

func TestLoad_ConnPoolSettings(t *testing.T) {
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "900")
	t.Setenv("DATABASE_CONN_MAX_IDLE_TIME", "120")

	cfg := Load()
	if cfg.DBConnMaxLifetime != 900 {
		t.Errorf("DBConnMaxLifetime = %d, want 900", cfg.DBConnMaxLifetime)
	}
	if cfg.DBConnMaxIdleTime != 120 {
		t.Errorf("DBConnMaxIdleTime = %d, want 120", cfg.DBConnMaxIdleTime)
	}
}

func TestLoad_ConnPoolDefaults(t *testing.T) {
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "")
	t.Setenv("DATABASE_CONN_MAX_IDLE_TIME", "")

	cfg := Load()
	if cfg.DBConnMaxLifetime != 1800 {
		t.Errorf("DBConnMaxLifetime = %d, want 1800", cfg.DBConnMaxLifetime)
	}
	if cfg.DBConnMaxIdleTime != 300 {
		t.Errorf("DBConnMaxIdleTime = %d, want 300", cfg.DBConnMaxIdleTime)
	}
}
