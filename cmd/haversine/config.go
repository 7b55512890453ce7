package main

import "time"

type (
	ServiceConfig struct {
		Environment string `env:"SENTRY_ENVIRONMENT" env-default:"development" env-description:"Environment reported to Sentry"`

		SentryDSN string `env:"SENTRY_DSN" env-description:"Sentry DSN, errors are not reported when empty"`

		LogLevel string `env:"LOG_LEVEL" env-default:"info" env-description:"Minimum level of the logs"`

		Timer        string        `env:"PROFILER_TIMER" env-default:"cpu" env-description:"Timestamp source, cpu or os"`
		Calibration  time.Duration `env:"PROFILER_CALIBRATION" env-default:"100ms" env-description:"How long the cpu timer is calibrated for"`
		SlotCapacity int           `env:"PROFILER_SLOT_CAPACITY" env-default:"128" env-description:"Number of profiler slots"`
		MaxDepth     int           `env:"PROFILER_MAX_DEPTH" env-default:"256" env-description:"Maximum number of nested blocks"`
	}
)
