// Package store persists plots, sensors and readings in SQLite through GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fieldops-sim/internal/farm"
)

// Store implements farm.TxRepository on a GORM handle.
// Inside Atomic the handle is the open transaction.
type Store struct {
	ORM *gorm.DB
}

// Open connects to the SQLite file at path and migrates the schema.
func Open(path string) (*Store, error) {
	return open(path, os.Stderr)
}

func open(path string, logOut io.Writer) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(logOut),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// newGormLogger reports slow queries and errors. Lookups that miss are expected
// (seeding probes sensor codes) and stay quiet.
func newGormLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// New wraps an existing GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{ORM: db}
}

// Migrate ensures tables and indexes for all entities exist.
func (s *Store) Migrate() error {
	if err := s.ORM.AutoMigrate(&farm.Plot{}, &farm.Sensor{}, &farm.Reading{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.ORM.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Atomic runs fn in a transaction. An error from fn, or a panic, rolls everything back.
func (s *Store) Atomic(ctx context.Context, fn func(farm.Repository) error) error {
	return s.ORM.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{ORM: tx})
	})
}

// Snapshot runs fn inside one deferred transaction. Under WAL the first read pins
// the snapshot, so every read in fn sees the same committed ticks.
func (s *Store) Snapshot(ctx context.Context, fn func(farm.Repository) error) error {
	return s.ORM.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{ORM: tx})
	})
}

func (s *Store) Plots(ctx context.Context) ([]farm.Plot, error) {
	var plots []farm.Plot
	if err := s.ORM.WithContext(ctx).Order("id").Find(&plots).Error; err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return plots, nil
}

func (s *Store) PlotByID(ctx context.Context, id uint) (farm.Plot, error) {
	var p farm.Plot
	err := s.ORM.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return farm.Plot{}, farm.PlotNotFound(id)
	}
	if err != nil {
		return farm.Plot{}, fmt.Errorf("get plot %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) ActiveSensors(ctx context.Context) ([]farm.Sensor, error) {
	var sensors []farm.Sensor
	err := s.ORM.WithContext(ctx).Where("active = ?", true).Order("id").Find(&sensors).Error
	if err != nil {
		return nil, fmt.Errorf("list active sensors: %w", err)
	}
	return sensors, nil
}

func (s *Store) ActiveSensorsByPlot(ctx context.Context, plotID uint) ([]farm.Sensor, error) {
	var sensors []farm.Sensor
	err := s.ORM.WithContext(ctx).
		Where("plot_id = ? AND active = ?", plotID, true).
		Order("id").
		Find(&sensors).Error
	if err != nil {
		return nil, fmt.Errorf("list active sensors of plot %d: %w", plotID, err)
	}
	return sensors, nil
}

func (s *Store) SensorByCode(ctx context.Context, code string) (farm.Sensor, error) {
	var sensor farm.Sensor
	err := s.ORM.WithContext(ctx).Where("code = ?", code).First(&sensor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return farm.Sensor{}, &farm.NotFoundError{Resource: "sensor", Key: code}
	}
	if err != nil {
		return farm.Sensor{}, fmt.Errorf("get sensor %s: %w", code, err)
	}
	return sensor, nil
}

func (s *Store) RecentReadings(ctx context.Context, sensorID uint, limit int) ([]farm.Reading, error) {
	var readings []farm.Reading
	err := s.ORM.WithContext(ctx).
		Where("sensor_id = ?", sensorID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("recent readings of sensor %d: %w", sensorID, err)
	}
	return readings, nil
}

func (s *Store) SavePlot(ctx context.Context, p *farm.Plot) error {
	if err := s.ORM.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save plot %d: %w", p.ID, err)
	}
	return nil
}

func (s *Store) SaveReadings(ctx context.Context, readings []farm.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	for i := range readings {
		readings[i].Timestamp = readings[i].Timestamp.UTC()
	}
	if err := s.ORM.WithContext(ctx).CreateInBatches(readings, 200).Error; err != nil {
		return fmt.Errorf("save %d readings: %w", len(readings), err)
	}
	return nil
}

// CreatePlot inserts a new plot.
func (s *Store) CreatePlot(ctx context.Context, p *farm.Plot) error {
	return s.ORM.WithContext(ctx).Create(p).Error
}

// CreateSensor inserts a new sensor.
func (s *Store) CreateSensor(ctx context.Context, sensor *farm.Sensor) error {
	return s.ORM.WithContext(ctx).Create(sensor).Error
}

// CountReadings returns the number of stored readings.
func (s *Store) CountReadings(ctx context.Context) (int64, error) {
	var n int64
	err := s.ORM.WithContext(ctx).Model(&farm.Reading{}).Count(&n).Error
	return n, err
}

// SanitizeLegacy sets missing production, cost and revenue values to zero.
// It returns the number of plots touched.
func (s *Store) SanitizeLegacy(ctx context.Context) (int64, error) {
	res := s.ORM.WithContext(ctx).Model(&farm.Plot{}).
		Where("production_kg IS NULL OR cost_eur IS NULL OR revenue_eur IS NULL").
		Updates(map[string]any{
			"production_kg": gorm.Expr("COALESCE(production_kg, 0)"),
			"cost_eur":      gorm.Expr("COALESCE(cost_eur, 0)"),
			"revenue_eur":   gorm.Expr("COALESCE(revenue_eur, 0)"),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("sanitize legacy plots: %w", res.Error)
	}
	return res.RowsAffected, nil
}
