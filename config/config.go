package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"room-booking/schedule"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Settings struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// DB
	DBDriver    string        `envconfig:"DB_DRIVER" default:"mysql"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	MySQLURL    string        `envconfig:"MYSQL_URL"`
	DBHost      string        `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort      string        `envconfig:"DB_PORT"`
	DBUser      string        `envconfig:"DB_USER" default:"root"`
	DBPass      string        `envconfig:"DB_PASS"`
	DBName      string        `envconfig:"DB_NAME" default:"room_booking"`
	DBSSLMode   string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`
	DBMaxOpen   int           `envconfig:"DB_MAX_OPEN" default:"20"`
	DBMaxIdle   int           `envconfig:"DB_MAX_IDLE" default:"5"`

	CorsOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Booking rules
	Rooms            []string `envconfig:"ROOMS" default:"101,102"`
	AllowedDurations []int    `envconfig:"ALLOWED_DURATIONS" default:"30,45,60,90,120"`
	CleaningMinutes  int      `envconfig:"CLEANING_MINUTES" default:"30"`
	BusinessStart    string   `envconfig:"BUSINESS_START" default:"12:00"`
	BusinessEnd      string   `envconfig:"BUSINESS_END" default:"20:00"`
	SlotStepMinutes  int      `envconfig:"SLOT_STEP_MINUTES" default:"15"`
	TimeZone         string   `envconfig:"TIMEZONE" default:"Local"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Settings, error) {
	var s Settings
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return s, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", &s); err != nil {
		return s, fmt.Errorf("read environment: %w", err)
	}
	s.DBDriver = strings.ToLower(strings.TrimSpace(s.DBDriver))
	switch s.DBDriver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return s, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}
	return s, nil
}

func (s Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(s.TimeZone))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", s.TimeZone, err)
	}
	return loc, nil
}

// Policy builds and validates the booking rules from the settings.
func (s Settings) Policy() (schedule.Policy, error) {
	var p schedule.Policy

	open, err := schedule.ParseClock(strings.TrimSpace(s.BusinessStart))
	if err != nil {
		return p, fmt.Errorf("BUSINESS_START: %w", err)
	}
	closing, err := schedule.ParseClock(strings.TrimSpace(s.BusinessEnd))
	if err != nil {
		return p, fmt.Errorf("BUSINESS_END: %w", err)
	}
	loc, err := s.Location()
	if err != nil {
		return p, err
	}

	rooms := make([]string, 0, len(s.Rooms))
	for _, r := range s.Rooms {
		if r = strings.TrimSpace(r); r != "" {
			rooms = append(rooms, r)
		}
	}

	p = schedule.Policy{
		Rooms:           rooms,
		Durations:       append([]int(nil), s.AllowedDurations...),
		CleaningMinutes: s.CleaningMinutes,
		BusinessStart:   open,
		BusinessEnd:     closing,
		SlotStep:        s.SlotStepMinutes,
		Location:        loc,
	}
	return p, p.Validate()
}
