// Package config handles loading and validating portal configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading an optional .env file
//   - Overriding with PORTAL_* environment variables
//   - Validation of required fields
//
// Sensitive values (MQTT password, InfluxDB token, Redis URL with credentials)
// should be set via environment variables rather than the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Portal.Name)
package config
