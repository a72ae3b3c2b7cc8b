package app

import (
	"os"
	"strings"
)

type Config struct {
	Env       string
	HTTPAddr  string
	CORSAllow []string

	// SnapshotPath is the rooms snapshot file rewritten on every mutation.
	SnapshotPath string

	// SignerKey is the hex-encoded private key producing payout
	// attestations. Empty runs the server unsigned.
	SignerKey string

	// KeepEmptyRooms keeps rooms alive after the last participant
	// disconnects so both seats can reconnect later.
	KeepEmptyRooms bool
}

func LoadConfig() Config {
	cfg := Config{
		Env:          getEnv("APP_ENV", "dev"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":3000"),
		SnapshotPath: getEnv("ROOMS_FILE", "rooms.json"),
		SignerKey:    getEnv("SIGNER_KEY", ""),
	}
	cfg.KeepEmptyRooms = getEnvBool("KEEP_EMPTY_ROOMS", true)
	// CORS allowlist; the game frontend may be served from anywhere
	allow := getEnv("CORS_ALLOW", "*")
	cfg.CORSAllow = splitCSV(allow)
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvBool parses a boolean env var with a fallback
func getEnvBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
