package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidPlot   = errors.New("invalid plot")
	ErrInvalidSample = errors.New("invalid sample")
)

// Fixed width keeps lexical order equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS plots (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	farm_name       TEXT NOT NULL DEFAULT '',
	row_spacing_m   REAL NOT NULL,
	plant_spacing_m REAL NOT NULL,
	planting_date   TEXT,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	id           TEXT PRIMARY KEY,
	plot_id      TEXT NOT NULL REFERENCES plots(id) ON DELETE CASCADE,
	green        REAL NOT NULL DEFAULT 0,
	green_yellow REAL NOT NULL DEFAULT 0,
	cherry       REAL NOT NULL DEFAULT 0,
	raisin       REAL NOT NULL DEFAULT 0,
	dry          REAL NOT NULL DEFAULT 0,
	taken_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_plot_taken ON samples (plot_id, taken_at);
`

// Store persists plots and their ripeness samples in SQLite.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

type plotRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	FarmName      string         `db:"farm_name"`
	RowSpacingM   float64        `db:"row_spacing_m"`
	PlantSpacingM float64        `db:"plant_spacing_m"`
	PlantingDate  sql.NullString `db:"planting_date"`
	CreatedAt     string         `db:"created_at"`
}

type sampleRow struct {
	ID          string  `db:"id"`
	PlotID      string  `db:"plot_id"`
	Green       float64 `db:"green"`
	GreenYellow float64 `db:"green_yellow"`
	Cherry      float64 `db:"cherry"`
	Raisin      float64 `db:"raisin"`
	Dry         float64 `db:"dry"`
	TakenAt     string  `db:"taken_at"`
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("Opened plot store")
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreatePlot stores a plot, assigning an ID when it has none.
func (s *Store) CreatePlot(ctx context.Context, p forecast.Plot) (forecast.Plot, error) {
	if p.Name == "" {
		return forecast.Plot{}, fmt.Errorf("%w: name is required", ErrInvalidPlot)
	}
	if _, err := forecast.PlantsPerHectare(p.RowSpacingM, p.PlantSpacingM); err != nil {
		return forecast.Plot{}, fmt.Errorf("%w: %v", ErrInvalidPlot, err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	row := plotRow{
		ID:            p.ID,
		Name:          p.Name,
		FarmName:      p.FarmName,
		RowSpacingM:   p.RowSpacingM,
		PlantSpacingM: p.PlantSpacingM,
		CreatedAt:     s.now().UTC().Format(timeLayout),
	}
	if p.PlantingDate != nil {
		row.PlantingDate = sql.NullString{String: p.PlantingDate.Format(dateLayout), Valid: true}
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO plots (id, name, farm_name, row_spacing_m, plant_spacing_m, planting_date, created_at)
		VALUES (:id, :name, :farm_name, :row_spacing_m, :plant_spacing_m, :planting_date, :created_at)`, row)
	if err != nil {
		return forecast.Plot{}, fmt.Errorf("insert plot: %w", err)
	}
	return p, nil
}

// GetPlot loads one plot.
func (s *Store) GetPlot(ctx context.Context, id string) (forecast.Plot, error) {
	var row plotRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM plots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return forecast.Plot{}, fmt.Errorf("plot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return forecast.Plot{}, fmt.Errorf("get plot: %w", err)
	}
	return row.toPlot(), nil
}

// ListPlots returns every plot ordered by farm and name.
func (s *Store) ListPlots(ctx context.Context) ([]forecast.Plot, error) {
	var rows []plotRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM plots ORDER BY farm_name, name, id"); err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	plots := make([]forecast.Plot, 0, len(rows))
	for _, r := range rows {
		plots = append(plots, r.toPlot())
	}
	return plots, nil
}

// RecordSample stores a ripeness sample for an existing plot.
func (s *Store) RecordSample(ctx context.Context, plotID string, counts maturation.Counts, takenAt time.Time) (forecast.Sample, error) {
	for _, stage := range maturation.Stages {
		if v := counts[stage]; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return forecast.Sample{}, fmt.Errorf("%w: %s count %v", ErrInvalidSample, stage, v)
		}
	}
	if _, err := s.GetPlot(ctx, plotID); err != nil {
		return forecast.Sample{}, err
	}
	if takenAt.IsZero() {
		takenAt = s.now()
	}

	row := sampleRow{
		ID:          uuid.NewString(),
		PlotID:      plotID,
		Green:       counts[maturation.Green],
		GreenYellow: counts[maturation.GreenYellow],
		Cherry:      counts[maturation.Cherry],
		Raisin:      counts[maturation.Raisin],
		Dry:         counts[maturation.Dry],
		TakenAt:     takenAt.UTC().Format(timeLayout),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO samples (id, plot_id, green, green_yellow, cherry, raisin, dry, taken_at)
		VALUES (:id, :plot_id, :green, :green_yellow, :cherry, :raisin, :dry, :taken_at)`, row)
	if err != nil {
		return forecast.Sample{}, fmt.Errorf("insert sample: %w", err)
	}
	return row.toSample(), nil
}

// LatestSample returns the most recent sample of a plot.
func (s *Store) LatestSample(ctx context.Context, plotID string) (forecast.Sample, error) {
	var row sampleRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM samples WHERE plot_id = ? ORDER BY taken_at DESC, id DESC LIMIT 1", plotID)
	if errors.Is(err, sql.ErrNoRows) {
		return forecast.Sample{}, fmt.Errorf("samples for plot %s: %w", plotID, ErrNotFound)
	}
	if err != nil {
		return forecast.Sample{}, fmt.Errorf("latest sample: %w", err)
	}
	return row.toSample(), nil
}

// Snapshots pairs every plot with its latest sample. Plots never sampled are skipped.
func (s *Store) Snapshots(ctx context.Context) ([]forecast.Snapshot, error) {
	plots, err := s.ListPlots(ctx)
	if err != nil {
		return nil, err
	}

	var snaps []forecast.Snapshot
	for _, p := range plots {
		sample, err := s.LatestSample(ctx, p.ID)
		if errors.Is(err, ErrNotFound) {
			log.Debug().Str("plot", p.ID).Msg("Plot has no samples yet")
			continue
		}
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, forecast.Snapshot{Plot: p, Sample: sample})
	}
	return snaps, nil
}

func (r plotRow) toPlot() forecast.Plot {
	p := forecast.Plot{
		ID:            r.ID,
		Name:          r.Name,
		FarmName:      r.FarmName,
		RowSpacingM:   r.RowSpacingM,
		PlantSpacingM: r.PlantSpacingM,
	}
	if r.PlantingDate.Valid {
		if d, err := time.Parse(dateLayout, r.PlantingDate.String); err == nil {
			p.PlantingDate = &d
		}
	}
	return p
}

func (r sampleRow) toSample() forecast.Sample {
	takenAt, _ := time.Parse(timeLayout, r.TakenAt)
	return forecast.Sample{
		ID:      r.ID,
		PlotID:  r.PlotID,
		Counts:  maturation.Counts{r.Green, r.GreenYellow, r.Cherry, r.Raisin, r.Dry},
		TakenAt: takenAt,
	}
}
