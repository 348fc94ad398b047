package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.URL == "" && (c.Database.User == "" || c.Database.Name == "" || c.Database.Host == "") {
		errs = append(errs, "DATABASE_URL or POSTGRES_USER, POSTGRES_HOST and POSTGRES_DB are required")
	}
	if c.Database.PoolSize <= 0 {
		errs = append(errs, "DB_POOL_SIZE must be positive")
	}
	if c.Database.MaxOverflow < 0 {
		errs = append(errs, "DB_MAX_OVERFLOW must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Ingest validation
	if c.Ingest.DataDir == "" || c.Ingest.ProcessedDir == "" || c.Ingest.ErroredDir == "" {
		errs = append(errs, "DATA_DIR, PROCESSED_DIR and ERRORED_DIR must be set")
	}
	if c.Ingest.Interval <= 0 {
		errs = append(errs, "INGEST_INTERVAL must be positive")
	}
	if c.Ingest.MaxFileSize <= 0 {
		errs = append(errs, "INGEST_MAX_FILE_SIZE must be positive")
	}
	if c.Ingest.OfferName == "" || c.Ingest.EstateTypeName == "" || c.Ingest.CityName == "" || c.Ingest.CityPartName == "" {
		errs = append(errs, "INGEST_OFFER_NAME, INGEST_ESTATE_TYPE, INGEST_CITY and INGEST_CITY_PART must be set")
	}

	// Conversion validation
	if c.Conversion.CurrencyRate <= 0 {
		errs = append(errs, "NEURO_PER_USD must be positive")
	}
	if c.Conversion.SqmPerAcre <= 0 {
		errs = append(errs, "SQM_PER_ACRE must be positive")
	}
	if c.Conversion.SqmPerSqft <= 0 {
		errs = append(errs, "SQM_PER_SQFT must be positive")
	}

	// Auth validation
	if c.Auth.Username == "" {
		errs = append(errs, "AUTH_USERNAME must be set")
	}
	if c.Auth.PasswordHash == "" && c.Auth.Password == "" {
		errs = append(errs, "AUTH_PASSWORD_HASH or AUTH_PASSWORD is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.Auth.JWTExpiry <= 0 {
		errs = append(errs, "JWT_EXPIRY must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.LoginLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_LOGIN must be positive when rate limiting is enabled")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials and the database URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {DSN: [MASKED], PoolSize: %d, MaxOverflow: %d}, ",
		c.Database.PoolSize, c.Database.MaxOverflow))
	b.WriteString(fmt.Sprintf("Ingest: {DataDir: %q, Interval: %s, Enabled: %v}, ",
		c.Ingest.DataDir, c.Ingest.Interval, c.Ingest.Enabled))
	b.WriteString(fmt.Sprintf("Conversion: {CurrencyRate: %g, SqmPerAcre: %g, SqmPerSqft: %g}, ",
		c.Conversion.CurrencyRate, c.Conversion.SqmPerAcre, c.Conversion.SqmPerSqft))
	b.WriteString(fmt.Sprintf("Auth: {Username: %q, Secret: [MASKED], Required: %v}, ",
		c.Auth.Username, c.Auth.Required))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
