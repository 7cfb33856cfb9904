package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LMS_CONFIG", "")
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, "http://localhost:8080/api/v1", c.APIURL)
	assert.Equal(t, 3*time.Second, c.PollInterval)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("LMS_API_URL", "https://lms.example.com/api/v1")
	t.Setenv("LMS_PORT", ":9000")
	t.Setenv("LMS_ADMIN_TOKEN", "s3cret")
	t.Setenv("LMS_POLL_INTERVAL", "1s")
	t.Setenv("LMS_POLL_MAX_INTERVAL", "1m")
	t.Setenv("LMS_MEMBERS_LIMIT", "250")
	t.Setenv("LMS_CORS", "false")
	t.Setenv("LMS_LOG_FORMAT", "json")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.com/api/v1", c.APIURL)
	assert.Equal(t, ":9000", c.Port)
	assert.Equal(t, "s3cret", c.AdminToken)
	assert.Equal(t, time.Second, c.PollInterval)
	assert.Equal(t, time.Minute, c.PollMaxInterval)
	assert.Equal(t, 250, c.MembersLimit)
	assert.False(t, c.CORS)
	assert.Equal(t, "json", c.LogFormat)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lmsadmin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apiUrl: http://loyalty:8080/api/v1
port: ":4000"
draftTtl: 10m
membersLimit: 20
`), 0o600))
	t.Setenv("LMS_CONFIG", path)
	t.Setenv("LMS_PORT", ":5000")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://loyalty:8080/api/v1", c.APIURL)
	assert.Equal(t, ":5000", c.Port)
	assert.Equal(t, 10*time.Minute, c.DraftTTL)
	assert.Equal(t, 20, c.MembersLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"LMS_POLL_INTERVAL": "soon"}},
		{"bad limit", map[string]string{"LMS_MEMBERS_LIMIT": "many"}},
		{"bad bool", map[string]string{"LMS_CORS": "maybe"}},
		{"max below base", map[string]string{"LMS_POLL_INTERVAL": "10s", "LMS_POLL_MAX_INTERVAL": "5s"}},
		{"bad url", map[string]string{"LMS_API_URL": "localhost:8080"}},
		{"bad level", map[string]string{"LMS_LOG_LEVEL": "loud"}},
		{"bad format", map[string]string{"LMS_LOG_FORMAT": "xml"}},
		{"zero refresh", map[string]string{"LMS_MEMBERS_REFRESH": "0s"}},
		{"missing file", map[string]string{"LMS_CONFIG": "/nonexistent/lmsadmin.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLevel(t *testing.T) {
	c := Default()
	c.LogLevel = "debug"
	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", l.String())
	assert.NotNil(t, c.NewLogger())
}
