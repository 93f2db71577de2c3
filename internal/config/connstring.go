package config

import (
	"fmt"
	"strings"
)

// npgsqlKeys maps Npgsql connection string keywords to libpq ones.
var npgsqlKeys = map[string]string{
	"server":           "host",
	"host":             "host",
	"port":             "port",
	"database":         "dbname",
	"user id":          "user",
	"userid":           "user",
	"user":             "user",
	"username":         "user",
	"password":         "password",
	"timeout":          "connect_timeout",
	"application name": "application_name",
	"sslmode":          "sslmode",
	"ssl mode":         "sslmode",
}

// ConnString returns the connection string in a form pgx accepts. URLs and
// libpq keyword/value strings pass through; semicolon separated Npgsql
// strings are translated.
func (c *Config) ConnString() (string, error) {
	s := strings.TrimSpace(c.ConnectionString)
	if s == "" || strings.Contains(s, "://") || !strings.Contains(s, ";") {
		return s, nil
	}

	var parts []string
	for _, kv := range strings.Split(s, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			return "", fmt.Errorf("config: connection string entry %q has no '='", kv)
		}
		key, known := npgsqlKeys[strings.ToLower(strings.TrimSpace(k))]
		if !known {
			return "", fmt.Errorf("config: unsupported connection string keyword %q", strings.TrimSpace(k))
		}
		if key == "sslmode" {
			val = strings.ToLower(val)
		}
		parts = append(parts, key+"="+quoteConnValue(strings.TrimSpace(val)))
	}
	return strings.Join(parts, " "), nil
}

// quoteConnValue quotes a libpq keyword value when it is empty or contains
// spaces, quotes or backslashes.
func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
