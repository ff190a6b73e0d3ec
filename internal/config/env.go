package config

import (
    "log"
    "os"
    "strconv"
    "strings"
    "time"
)

// getenv returns the variable or def when it is unset or blank.
func getenv(key, def string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return def
}

func envBool(key string, def bool) bool {
    switch strings.ToLower(getenv(key, "")) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return def
}

func envInt(key string, def int) int {
    if n, err := strconv.Atoi(getenv(key, "")); err == nil {
        return n
    }
    return def
}

func envDur(key string, def time.Duration) time.Duration {
    if d, err := time.ParseDuration(getenv(key, "")); err == nil {
        return d
    }
    return def
}

// envList splits a comma separated variable, dropping blanks.
func envList(key, def string) []string {
    out := []string{}
    for _, p := range strings.Split(getenv(key, def), ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v := getenv(key, "")
    if v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
