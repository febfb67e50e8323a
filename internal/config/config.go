package config // package config loads application configuration from environment variables

import (
    "log"  // log is used to report configuration errors and halt execution
    "os"   // os provides access to environment variables
    "time" // time parses duration knobs
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Required values are
// enforced by must(); tuning knobs fall back to production defaults.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    JWTSecret string // secret used to verify access tokens

    PaymentRate  float64       // fraction of simulated payments approved, 0..1
    PaymentDelay time.Duration // simulated payment processing latency

    RetryMaxAttempts int           // attempts per booking unit, including the first
    RetryBaseDelay   time.Duration // backoff before the second attempt
    RetryMaxDelay    time.Duration // ceiling for the exponential backoff
}

// Load reads configuration values from environment variables and
// returns a Config.  Missing required variables cause the program to
// exit with a fatal log message.
func Load() Config {
    return Config{
        Env:       must("APP_ENV"),      // environment (dev/test/prod)
        Port:      must("APP_PORT"),     // port to bind the HTTP server
        DBUser:    must("DB_USER"),      // database user
        DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:    must("DB_HOST"),      // database host
        DBPort:    must("DB_PORT"),      // database port
        DBName:    must("DB_NAME"),      // database name
        JWTSecret: must("JWT_SECRET"),   // secret used to verify JWTs

        PaymentRate:  envFloat("PAYMENT_SUCCESS_RATE", 1.0),
        PaymentDelay: envDur("PAYMENT_DELAY", 100*time.Millisecond),

        RetryMaxAttempts: envInt("BOOKING_RETRY_MAX_ATTEMPTS", 5),
        RetryBaseDelay:   envDur("BOOKING_RETRY_BASE_DELAY", 100*time.Millisecond),
        RetryMaxDelay:    envDur("BOOKING_RETRY_MAX_DELAY", time.Second),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
