package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
server:
  name: test-server
  prefix: test

connector:
  type: hana
  host: localhost
  port: 30015
  user: testuser
  password: testpass
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "test-server", cfg.Server.Name)
	assert.Equal(t, "test", cfg.Server.Prefix)
	assert.Equal(t, "hana", cfg.Connector.Type)

	hana := cfg.Connector.HanaParams()
	assert.Equal(t, "localhost", hana.Host)
	assert.Equal(t, 30015, hana.Port)
	assert.Equal(t, "testuser", hana.User)

	assert.Empty(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  name: s
  prefix: p
connector:
  type: hana
  host: h
  user: u
  password: pw
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0", cfg.Server.Version)
	assert.Equal(t, 8088, cfg.Server.HTTPPort)
	assert.Equal(t, 30013, cfg.Connector.Port)
	assert.True(t, cfg.Connector.SSLValidate)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoadConfig_PasswordFromEnv(t *testing.T) {
	t.Setenv("SAP_MCP_PASSWORD", "secret-from-env")
	path := writeConfig(t, `
server:
  name: s
  prefix: p
connector:
  type: hana
  host: h
  user: u
  password: from-file
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Connector.Password)
}

func TestValidate_HanaMissingFields(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Name = "test"
	cfg.Server.Prefix = "test"
	cfg.Connector.Type = "hana"

	errs := cfg.Validate()

	assert.Contains(t, errs, "HANA host is required")
	assert.Contains(t, errs, "HANA user is required")
	assert.Contains(t, errs, "HANA password is required")
}

func TestValidate_OdbcMissingConnectionString(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Name = "test"
	cfg.Server.Prefix = "test"
	cfg.Connector.Type = "odbc"

	errs := cfg.Validate()

	assert.Equal(t, []string{"ODBC connection_string is required"}, errs)
}

func TestValidate_UnknownConnectorType(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Name = "test"
	cfg.Server.Prefix = "test"
	cfg.Connector.Type = "oracle"

	errs := cfg.Validate()

	assert.Contains(t, errs, "Unknown connector type: oracle")
}

func TestValidate_ServerFieldsRequired(t *testing.T) {
	cfg := defaultConfig()
	cfg.Connector.Host = "h"
	cfg.Connector.User = "u"
	cfg.Connector.Password = "pw"

	errs := cfg.Validate()

	assert.Contains(t, errs, "Server name is required")
	assert.Contains(t, errs, "Server prefix is required")
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Name = "sap-hana"
	cfg.Server.Prefix = "sap_hana"
	cfg.Connector.Host = "hana.example.com"
	cfg.Connector.User = "SYSTEM"
	cfg.Connector.Password = "pw"
	cfg.Connector.DatabaseName = "HDB"

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.Connector, loaded.Connector)
}
