// Package config manages user-level settings stored at ~/.thinky/config.yaml.
//
// Values come, in priority order, from THINKY_* environment variables, the
// plain variable names used by agent projects (AGENT_DIR_PATH, PROVIDER,
// BASE_URL, ...), a .env file in the working directory, and the config file.
package config
