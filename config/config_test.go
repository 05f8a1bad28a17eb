package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("TIMEZONE", "UTC")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, s.DBDriver)
	assert.Equal(t, 5*time.Second, s.DBTimeout)

	p, err := s.Policy()
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "102"}, p.Rooms)
	assert.Equal(t, []int{30, 45, 60, 90, 120}, p.Durations)
	assert.Equal(t, 30, p.CleaningMinutes)
	assert.Equal(t, datatypes.NewTime(12, 0, 0, 0), p.BusinessStart)
	assert.Equal(t, datatypes.NewTime(20, 0, 0, 0), p.BusinessEnd)
	assert.Equal(t, 15, p.SlotStep)
	assert.Equal(t, time.UTC, p.Loc())
}

func TestLoad_OverridesRules(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ROOMS", " A , B ,")
	t.Setenv("ALLOWED_DURATIONS", "20,40")
	t.Setenv("CLEANING_MINUTES", "10")
	t.Setenv("BUSINESS_START", "09:30")
	t.Setenv("BUSINESS_END", "17:00")
	t.Setenv("SLOT_STEP_MINUTES", "10")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.DBDriver)

	p, err := s.Policy()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, p.Rooms)
	assert.Equal(t, []int{20, 40}, p.Durations)
	assert.Equal(t, 10*time.Minute, p.CleaningBuffer())
	assert.Equal(t, "09:30", p.Slots()[0])
	assert.Equal(t, "17:00", p.Slots()[len(p.Slots())-1])
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load()
	assert.ErrorContains(t, err, "sqlite")
}

func TestPolicy_InvalidSettings(t *testing.T) {
	base := Settings{
		Rooms:            []string{"101"},
		AllowedDurations: []int{30},
		CleaningMinutes:  30,
		BusinessStart:    "12:00",
		BusinessEnd:      "20:00",
		SlotStepMinutes:  15,
		TimeZone:         "UTC",
	}
	_, err := base.Policy()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"bad start", func(s *Settings) { s.BusinessStart = "noon" }},
		{"bad end", func(s *Settings) { s.BusinessEnd = "8pm" }},
		{"reversed window", func(s *Settings) { s.BusinessStart, s.BusinessEnd = "20:00", "12:00" }},
		{"blank rooms", func(s *Settings) { s.Rooms = []string{" ", ""} }},
		{"unknown timezone", func(s *Settings) { s.TimeZone = "Mars/Olympus_Mons" }},
		{"zero step", func(s *Settings) { s.SlotStepMinutes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			_, err := s.Policy()
			assert.Error(t, err)
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	t.Run("from url", func(t *testing.T) {
		s := Settings{MySQLURL: "mysql://booker:secret@db:3307/rooms?timeout=5s"}
		dsn, err := s.mysqlDSN(time.UTC)
		require.NoError(t, err)
		assert.Contains(t, dsn, "booker:secret@tcp(db:3307)/rooms?")
		assert.Contains(t, dsn, "parseTime=true")
		assert.Contains(t, dsn, "charset=utf8mb4")
		assert.Contains(t, dsn, "timeout=5s")
	})

	t.Run("url without port", func(t *testing.T) {
		s := Settings{DatabaseURL: "mysql://booker@db/rooms"}
		dsn, err := s.mysqlDSN(time.UTC)
		require.NoError(t, err)
		assert.Contains(t, dsn, "tcp(db:3306)/rooms")
	})

	t.Run("url without database", func(t *testing.T) {
		s := Settings{MySQLURL: "mysql://booker@db:3306/"}
		_, err := s.mysqlDSN(time.UTC)
		assert.Error(t, err)
	})

	t.Run("driver dsn", func(t *testing.T) {
		s := Settings{DatabaseURL: "root:pw@tcp(localhost:3306)/rooms"}
		dsn, err := s.mysqlDSN(time.UTC)
		require.NoError(t, err)
		assert.Contains(t, dsn, "tcp(localhost:3306)/rooms")
		assert.Contains(t, dsn, "parseTime=true")
	})

	t.Run("discrete settings", func(t *testing.T) {
		s := Settings{DBHost: "10.0.0.5", DBUser: "root", DBPass: "pw", DBName: "room_booking"}
		dsn, err := s.mysqlDSN(time.UTC)
		require.NoError(t, err)
		assert.Contains(t, dsn, "root:pw@tcp(10.0.0.5:3306)/room_booking")
	})
}

func TestPostgresDSN(t *testing.T) {
	s := Settings{DBHost: "pg", DBUser: "booker", DBPass: "pw", DBName: "rooms", DBSSLMode: "disable"}
	assert.Equal(t,
		"host=pg user=booker password=pw dbname=rooms port=5432 sslmode=disable TimeZone=UTC",
		s.postgresDSN(time.UTC))

	s.DatabaseURL = "postgres://booker:pw@pg:5433/rooms"
	assert.Equal(t, "postgres://booker:pw@pg:5433/rooms", s.postgresDSN(time.UTC))
}

func TestDialector_MemoryHasNoSQLDialect(t *testing.T) {
	_, err := Settings{DBDriver: DriverMemory}.dialector(time.UTC)
	assert.Error(t, err)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Warn, gormLogLevel("info"))
	assert.Equal(t, logger.Error, gormLogLevel("ERROR"))
}
