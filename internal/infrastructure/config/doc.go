// Package config handles loading and validating KotakeeOS core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The static house topology (rooms, modules, action/pin assignments) lives in
// the config file. The per-room input-rule tables live in a separate JSON
// file referenced by home.rules_path, since clients rewrite them at runtime.
//
// Security Considerations:
//   - Sensitive values (weather API key, MQTT password, InfluxDB token)
//     should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Home.Name)
package config
