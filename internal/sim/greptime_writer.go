package sim

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"fieldops-sim/internal/config"
	"fieldops-sim/internal/telemetry"
)

const greptimeWriteTimeout = 10 * time.Second

// greptimeClient is the subset of the ingester client the writer needs.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter mirrors readings and plot economics into GreptimeDB.
// Tables are created by GreptimeDB on first write.
type GreptimeDBWriter struct {
	client       greptimeClient
	readingTable string
	plotTable    string
}

// NewGreptimeDBWriter connects to the gRPC endpoint "host:port" from cfg.
func NewGreptimeDBWriter(cfg config.GreptimeConfig) (*GreptimeDBWriter, error) {
	host, portStr, err := net.SplitHostPort(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("greptime endpoint %q: %w", cfg.Endpoint, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("greptime port %q: %w", portStr, err)
	}
	gcfg := greptime.NewConfig(host).WithPort(port).WithDatabase(cfg.Database)
	client, err := greptime.NewClient(gcfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client:       client,
		readingTable: cfg.ReadingTable,
		plotTable:    cfg.PlotTable,
	}, nil
}

// WriteReading inserts a single reading row.
func (w *GreptimeDBWriter) WriteReading(row telemetry.ReadingRow) error {
	return w.WriteReadings([]telemetry.ReadingRow{row})
}

// WriteReadings inserts multiple reading rows in one request.
func (w *GreptimeDBWriter) WriteReadings(rows []telemetry.ReadingRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.readingTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("plot_id"), tag("sensor_code"), tag("kind"),
		field("value", types.FLOAT64), field("unit", types.STRING),
		field("quality", types.STRING), field("tick_id", types.STRING),
	); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(
			strconv.FormatUint(uint64(r.PlotID), 10), r.SensorCode, string(r.Kind),
			r.Value, r.Unit, string(r.Quality), r.TickID,
			r.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(w.readingTable, tbl)
}

// WritePlots inserts the economic snapshot of every plot.
func (w *GreptimeDBWriter) WritePlots(rows []telemetry.PlotRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.plotTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("plot_id"), tag("name"),
		field("state", types.STRING), field("production_kg", types.FLOAT64),
		field("cost_eur", types.FLOAT64), field("revenue_eur", types.FLOAT64),
		field("balance_eur", types.FLOAT64), field("tick_id", types.STRING),
	); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, p := range rows {
		if err := tbl.AddRow(
			strconv.FormatUint(uint64(p.PlotID), 10), p.Name,
			string(p.State), p.ProductionKg,
			p.CostEUR, p.RevenueEUR,
			p.RevenueEUR-p.CostEUR, p.TickID,
			p.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(w.plotTable, tbl)
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeWriteTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %s: %w", name, err)
	}
	return nil
}

type column struct {
	name  string
	isTag bool
	typ   types.ColumnType
}

func tag(name string) column { return column{name: name, isTag: true, typ: types.STRING} }

func field(name string, typ types.ColumnType) column { return column{name: name, typ: typ} }

func addColumns(tbl *table.Table, cols ...column) error {
	for _, c := range cols {
		var err error
		if c.isTag {
			err = tbl.AddTagColumn(c.name, c.typ)
		} else {
			err = tbl.AddFieldColumn(c.name, c.typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
