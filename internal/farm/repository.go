package farm

import "context"

// Repository is the storage collaborator used by the simulation and read side.
type Repository interface {
	// Plots returns every plot ordered by id.
	Plots(ctx context.Context) ([]Plot, error)
	PlotByID(ctx context.Context, id uint) (Plot, error)
	// ActiveSensors returns every active sensor across all plots.
	ActiveSensors(ctx context.Context) ([]Sensor, error)
	ActiveSensorsByPlot(ctx context.Context, plotID uint) ([]Sensor, error)
	SensorByCode(ctx context.Context, code string) (Sensor, error)
	// RecentReadings returns at most limit readings of a sensor, newest first.
	RecentReadings(ctx context.Context, sensorID uint, limit int) ([]Reading, error)
	SavePlot(ctx context.Context, p *Plot) error
	SaveReadings(ctx context.Context, readings []Reading) error
}

// TxRepository can run a unit of work atomically.
// fn receives a Repository bound to the transaction; returning an error rolls it back.
type TxRepository interface {
	Repository
	Atomic(ctx context.Context, fn func(Repository) error) error
}

// Snapshotter runs a group of reads against one consistent view of the data.
// fn must not write.
type Snapshotter interface {
	Snapshot(ctx context.Context, fn func(Repository) error) error
}
