package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/projectpulse/pulse/core"
)

func TestProvisionStatements(t *testing.T) {
	tests := []struct {
		name       string
		db         core.DatabaseConfig
		wantRole   string
		wantCreate string
	}{
		{
			name:       "plain names",
			db:         core.DatabaseConfig{User: "pulse", Password: "secret", Name: "pulse"},
			wantRole:   `CREATE ROLE "pulse" LOGIN CREATEDB PASSWORD 'secret'`,
			wantCreate: `CREATE DATABASE "pulse"`,
		},
		{
			name:       "quotes are escaped",
			db:         core.DatabaseConfig{User: `o"hara`, Password: "it's", Name: `pulse"; DROP DATABASE x; --`},
			wantRole:   `CREATE ROLE "o""hara" LOGIN CREATEDB PASSWORD 'it''s'`,
			wantCreate: `CREATE DATABASE "pulse""; DROP DATABASE x; --"`,
		},
		{
			name:       "backslashes use an escape string",
			db:         core.DatabaseConfig{User: "Pulse", Password: `a\b`, Name: "Pulse-Prod"},
			wantRole:   `CREATE ROLE "Pulse" LOGIN CREATEDB PASSWORD  E'a\\b'`,
			wantCreate: `CREATE DATABASE "Pulse-Prod"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &core.Config{Database: tt.db}

			role := appRole(conf)
			assert.Equal(t, tt.wantRole, role.create)
			assert.Equal(t, tt.db.User, role.arg)
			assert.Contains(t, role.exists, "$1")

			db := appDatabase(conf)
			assert.Equal(t, tt.wantCreate, db.create)
			assert.Equal(t, tt.db.Name, db.arg)
			assert.Contains(t, db.exists, "$1")
		})
	}
}
