package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	require.NoError(t, c.Validate())

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadTOML(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "castings.toml")
	require.NoError(t, ioutil.WriteFile(filename, []byte(`
db_path = "/var/lib/castings/castings.db"

[web]
api_base_url = "http://api:8000"
lookup_timeout = "2s"
page_size = 25
`), 0666))

	c, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/castings/castings.db", c.DBPath)
	assert.Equal(t, "http://api:8000", c.Web.APIBaseURL)
	assert.Equal(t, 2*time.Second, c.Web.LookupTimeout)
	assert.Equal(t, 10*time.Second, c.Web.QueryTimeout)
	assert.Equal(t, 25, c.Web.PageSize)
	assert.Equal(t, ":8000", c.API.Addr)
}

func TestLoadYAML(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "castings.yaml")
	require.NoError(t, ioutil.WriteFile(filename, []byte(`
log_level: dbg
api:
  addr: ":9000"
web:
  query_timeout: 30s
`), 0666))

	c, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "dbg", c.LogLevel)
	assert.Equal(t, ":9000", c.API.Addr)
	assert.Equal(t, 30*time.Second, c.Web.QueryTimeout)
	assert.Equal(t, 5*time.Second, c.Web.LookupTimeout)
}

func TestLoadMalformed(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "castings.toml")
	require.NoError(t, ioutil.WriteFile(filename, []byte("db_path = [unterminated"), 0666))
	_, err := Load(filename)
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	for _, name := range []string{"castings.toml", "castings.yml"} {
		t.Run(name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), name)
			c := Default()
			c.Web.PageSize = 42
			c.Web.LookupTimeout = 3 * time.Second
			require.NoError(t, Save(filename, c))

			got, err := Load(filename)
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty log level", func(c *Config) { c.LogLevel = "" }},
		{"empty api addr", func(c *Config) { c.API.Addr = "" }},
		{"relative base url", func(c *Config) { c.Web.APIBaseURL = "localhost:8000" }},
		{"ftp base url", func(c *Config) { c.Web.APIBaseURL = "ftp://localhost" }},
		{"zero timeout", func(c *Config) { c.Web.LookupTimeout = 0 }},
		{"page size too large", func(c *Config) { c.Web.PageSize = 101 }},
		{"page size zero", func(c *Config) { c.Web.PageSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}
