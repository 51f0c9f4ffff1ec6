package main

import (
	"os"
	"strings"
)

// envPrefix namespaces every environment fallback of a flag.
const envPrefix = "PATHHINT_"

// envName returns the environment variable backing the named setting.
func envName(name string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// getEnvOrDefault returns PATHHINT_<name> or defaultValue when it is unset
// or empty.
func getEnvOrDefault(name, defaultValue string) string {
	if value := os.Getenv(envName(name)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool parses PATHHINT_<name> as true/1/yes/on or false/0/no/off.
// Anything else yields defaultValue.
func getEnvBool(name string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envName(name)))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
