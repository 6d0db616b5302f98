package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the resolved YAML configuration.
//
//	server:
//	  name: sap-hana
//	  prefix: sap_hana
//	connector:
//	  type: hana          # or "odbc"
//	  host: hana.example.com
//	  port: 30013
//	  user: SYSTEM
//	  password: "..."
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Connector ConnectorConfig `yaml:"connector"`
	// Tables optionally names the tables the agent should care about; it is
	// surfaced to the agent via server instructions, not enforced.
	Tables  []string `yaml:"tables"`
	LogFile string   `yaml:"log_file"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Prefix  string `yaml:"prefix"`
	Version string `yaml:"version"`
	// HTTPPort is used by the HTTP transport.
	HTTPPort int `yaml:"http_port"`
}

// ConnectorConfig carries the parameter superset of both connector types; the
// type tag decides which fields apply.
type ConnectorConfig struct {
	Type string `yaml:"type"`

	// hana
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DatabaseName string `yaml:"database_name"`
	Encrypt      bool   `yaml:"encrypt"`
	SSLValidate  bool   `yaml:"sslValidateCertificate"`

	// odbc
	ConnectionString string `yaml:"connection_string"`
	// Driver selects the database/sql driver for the odbc connector type.
	// Defaults to "odbc"; any driver compiled into the binary is accepted.
	Driver string `yaml:"driver"`
}

// HanaParams maps the connector section onto HANA connection parameters.
func (c ConnectorConfig) HanaParams() HanaParams {
	return HanaParams{
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		Password:     c.Password,
		DatabaseName: c.DatabaseName,
		Encrypt:      c.Encrypt,
		SSLValidate:  c.SSLValidate,
	}
}

// OdbcParams maps the connector section onto generic connector parameters.
func (c ConnectorConfig) OdbcParams() ConnectorConfig {
	out := c
	if out.Driver == "" {
		out.Driver = "odbc"
	}
	return out
}

// defaultConfig carries the pre-unmarshal defaults: multi-tenant system DB
// port, certificate validation on.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Version:  "1.0",
			HTTPPort: 8088,
		},
		Connector: ConnectorConfig{
			Type:        "hana",
			Port:        30013,
			SSLValidate: true,
		},
	}
}

// LoadConfig reads and parses the YAML configuration at path. The password
// may be overridden with the SAP_MCP_PASSWORD environment variable so it can
// be kept out of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if pw := os.Getenv("SAP_MCP_PASSWORD"); pw != "" {
		cfg.Connector.Password = pw
	}

	return &cfg, nil
}

// Validate returns the list of configuration problems, empty when the
// configuration is usable.
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Name == "" {
		errs = append(errs, "Server name is required")
	}
	if c.Server.Prefix == "" {
		errs = append(errs, "Server prefix is required")
	}

	switch c.Connector.Type {
	case "hana":
		if c.Connector.Host == "" {
			errs = append(errs, "HANA host is required")
		}
		if c.Connector.User == "" {
			errs = append(errs, "HANA user is required")
		}
		if c.Connector.Password == "" {
			errs = append(errs, "HANA password is required")
		}
	case "odbc":
		if c.Connector.ConnectionString == "" {
			errs = append(errs, "ODBC connection_string is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("Unknown connector type: %s", c.Connector.Type))
	}

	return errs
}

// Save writes the configuration as YAML to path. Used by the wizard.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	return nil
}
