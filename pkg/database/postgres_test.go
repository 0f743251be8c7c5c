package database

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-content-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:            "db.internal",
		Port:            5433,
		User:            "lms",
		Password:        "p@ss/word",
		Name:            "lms_content",
		SSLMode:         "require",
		ApplicationName: "hierarchyctl",
		ConnectTimeout:  3 * time.Second,
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/lms_content", u.Path)
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", password)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "hierarchyctl", u.Query().Get("application_name"))
	assert.Equal(t, "3", u.Query().Get("connect_timeout"))
}

func TestDSNDefaultsSSLMode(t *testing.T) {
	u, err := url.Parse(DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "lms"}))
	require.NoError(t, err)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Empty(t, u.Query().Get("application_name"))
}
