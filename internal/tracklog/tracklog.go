// Package tracklog persists the mixer's TrackStarted/TrackStopped events to
// a local SQLite database for host-side inspection and debugging. It is a
// host-side concern only: nothing in internal/mixer or internal/audio
// imports this package, and it never runs on the audio callback thread.
package tracklog

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rapidaai/mixengine/internal/commons"
	"github.com/rapidaai/mixengine/internal/mixer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TrackEvent is one row: a single TrackStarted or TrackStopped observation
// for a given session and track.
type TrackEvent struct {
	ID          uint64    `gorm:"column:id;type:integer;primaryKey;autoIncrement"`
	SessionID   string    `gorm:"column:session_id;type:text;not null;index"`
	Track       uint64    `gorm:"column:track;type:integer;not null;index"`
	Kind        string    `gorm:"column:kind;type:text;not null"`
	ObservedAt  time.Time `gorm:"column:observed_at;type:datetime;not null"`
}

func (TrackEvent) TableName() string { return "track_events" }

// Store records track lifecycle events drained from a hostctx.Handle's
// response queue. Open a Store per session; Record is safe to call from a
// single host-side polling goroutine (gorm's *DB is itself safe for
// concurrent use if callers need more than one).
type Store struct {
	db     *gorm.DB
	logger commons.Logger
}

// Open connects to (and, if necessary, creates) a SQLite database at path
// and runs pending migrations from migrationsDir before returning. Pass an
// empty migrationsDir to skip migration and rely on AutoMigrate instead,
// useful for throwaway/in-memory databases in tests.
func Open(path, migrationsDir string, logger commons.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("tracklog: open sqlite %s: %w", path, err)
	}

	if migrationsDir != "" {
		if err := runMigrations(db, migrationsDir); err != nil {
			return nil, err
		}
	} else if err := db.AutoMigrate(&TrackEvent{}); err != nil {
		return nil, fmt.Errorf("tracklog: automigrate: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func runMigrations(db *gorm.DB, migrationsDir string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("tracklog: underlying sql.DB: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(sqlDB, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("tracklog: migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("tracklog: migration source: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("tracklog: running migrations: %w", err)
	}
	return nil
}

// Record appends one lifecycle event. Kind is "started" or "stopped".
func (s *Store) Record(ctx context.Context, sessionID string, track mixer.TrackID, kind string, observedAt time.Time) error {
	row := TrackEvent{
		SessionID:  sessionID,
		Track:      uint64(track),
		Kind:       kind,
		ObservedAt: observedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("tracklog: record event for track %d: %w", track, err)
	}
	if s.logger != nil {
		s.logger.Debugf("tracklog: recorded %s event for session=%s track=%d", kind, sessionID, track)
	}
	return nil
}

// RecordResponses is the convenience entry point: drain a batch of
// mixer.Response values (as returned by hostctx.Handle.Poll) and persist
// whichever ones are MixerEventResponse, ignoring the rest.
func (s *Store) RecordResponses(ctx context.Context, sessionID string, responses []mixer.Response, observedAt time.Time) error {
	for _, resp := range responses {
		ev, ok := resp.(mixer.MixerEventResponse)
		if !ok {
			continue
		}
		kind := "started"
		if ev.Kind == mixer.TrackStopped {
			kind = "stopped"
		}
		if err := s.Record(ctx, sessionID, ev.Track, kind, observedAt); err != nil {
			return err
		}
	}
	return nil
}

// EventsForSession returns every recorded event for a session, oldest
// first, for host-side inspection.
func (s *Store) EventsForSession(ctx context.Context, sessionID string) ([]TrackEvent, error) {
	var rows []TrackEvent
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("tracklog: query session %s: %w", sessionID, err)
	}
	return rows, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
