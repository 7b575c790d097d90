package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/catfence/internal/alert"
	"github.com/ayusman/catfence/internal/motion"
)

// ErrNotFound is returned when a requested alert does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps List when no positive limit is given.
const DefaultListLimit = 50

// Alert is one journal row.
type Alert struct {
	ID          string          `json:"id"`
	FiredAt     time.Time       `json:"fired_at"`
	Caption     string          `json:"caption"`
	Regions     []motion.Region `json:"regions"`
	LargestArea int             `json:"largest_area"`
	ImageBytes  int             `json:"image_bytes"`
	Delivered   bool            `json:"delivered"`
	Error       string          `json:"error,omitempty"`
}

// AlertRepository reads and writes the alerts table.
type AlertRepository struct {
	db *sql.DB
}

// Alerts returns the alert repository for this store.
func (s *Store) Alerts() *AlertRepository {
	return &AlertRepository{db: s.db}
}

// Record journals a fired alert together with the outcome of its delivery.
func (r *AlertRepository) Record(ctx context.Context, p alert.Payload, deliveryErr error) error {
	a := &Alert{
		ID:          p.ID,
		FiredAt:     p.FiredAt,
		Caption:     p.Caption,
		Regions:     p.Regions,
		LargestArea: p.LargestArea(),
		ImageBytes:  len(p.Image),
		Delivered:   deliveryErr == nil,
	}
	if deliveryErr != nil {
		a.Error = deliveryErr.Error()
	}
	return r.Create(ctx, a)
}

// Create inserts an alert.
func (r *AlertRepository) Create(ctx context.Context, a *Alert) error {
	regions := a.Regions
	if regions == nil {
		regions = []motion.Region{}
	}
	regionsJSON, err := json.Marshal(regions)
	if err != nil {
		return fmt.Errorf("failed to marshal regions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, fired_at, caption, regions, largest_area, image_bytes, delivered, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FiredAt.UnixNano(), a.Caption, string(regionsJSON), a.LargestArea, a.ImageBytes,
		boolToInt(a.Delivered), a.Error,
	)
	return err
}

// Get retrieves an alert by ID.
func (r *AlertRepository) Get(ctx context.Context, id string) (*Alert, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, fired_at, caption, regions, largest_area, image_bytes, delivered, error
		 FROM alerts WHERE id = ?`,
		id,
	)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the most recent alerts first, at most limit of them.
func (r *AlertRepository) List(ctx context.Context, limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fired_at, caption, regions, largest_area, image_bytes, delivered, error
		 FROM alerts ORDER BY fired_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// Count returns the number of journalled alerts.
func (r *AlertRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(s scanner) (*Alert, error) {
	var (
		a           Alert
		firedAt     int64
		regionsJSON string
		delivered   int
	)

	if err := s.Scan(&a.ID, &firedAt, &a.Caption, &regionsJSON, &a.LargestArea, &a.ImageBytes, &delivered, &a.Error); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(regionsJSON), &a.Regions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal regions of alert %s: %w", a.ID, err)
	}
	a.FiredAt = time.Unix(0, firedAt)
	a.Delivered = delivered != 0

	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
