package repo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// fakeRow replays one selectRecipient row into Scan destinations.
type fakeRow struct {
	openHours []byte
	contact   []byte
	err       error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	values := []any{
		pgtype.UUID{Bytes: [16]byte{1}, Valid: true},
		"Anna Daan", "12 MG Road", "", 13.0166, 77.5946,
		"active", "Asia/Kolkata", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		[]byte(`[{"type":"Food","min_quantity":5,"unit":"kg"}]`),
		[]byte(`["Refrigerated"]`),
		[]byte(`[]`),
		f.openHours,
		f.contact,
	}
	if len(dest) != len(values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *pgtype.UUID:
			*d = values[i].(pgtype.UUID)
		case *string:
			*d = values[i].(string)
		case *float64:
			*d = values[i].(float64)
		case *time.Time:
			*d = values[i].(time.Time)
		case *[]byte:
			*d, _ = values[i].([]byte)
		}
	}
	return nil
}

func newScanRepo(buf *bytes.Buffer) *pgRecipientRepo {
	return newPgRecipientRepo(nil, slog.New(slog.NewTextHandler(buf, nil)))
}

func TestScanRecipient_OpenUntilMidnight(t *testing.T) {
	var logs bytes.Buffer
	row := fakeRow{openHours: []byte(`[{"day":"friday","open":"18:00:00","close":"24:00:00"}]`)}

	rec, err := newScanRepo(&logs).scanRecipient(context.Background(), row)

	require.NoError(t, err)
	assert.Equal(t, []domain.OpenInterval{{Day: time.Friday, Open: domain.TimeOfDay{Hour: 18}, Close: domain.EndOfDay}}, rec.OpenIntervals)
	assert.Empty(t, logs.String())
}

func TestScanRecipient_UndecodableOpenHoursLeavesRecipientClosed(t *testing.T) {
	var logs bytes.Buffer
	row := fakeRow{openHours: []byte(`[
		{"day":"monday","open":"09:00:00","close":"17:00:00"},
		{"day":"monday","open":"18:00:00","close":"25:00:00"}]`)}

	rec, err := newScanRepo(&logs).scanRecipient(context.Background(), row)

	require.NoError(t, err, "a bad nested row is not a store failure")
	assert.Equal(t, "Anna Daan", rec.Name)
	assert.Empty(t, rec.OpenIntervals)
	assert.Equal(t, []string{"Refrigerated"}, rec.StorageCapabilities)
	assert.Contains(t, logs.String(), "collection=open_hours")
}

func TestScanRecipient_Contact(t *testing.T) {
	var logs bytes.Buffer
	row := fakeRow{
		openHours: []byte(`[]`),
		contact:   []byte(`{"name":"Lakshmi Rao","phone":"+91 80 4000 1234","email":"lakshmi@annadaan.org"}`),
	}

	rec, err := newScanRepo(&logs).scanRecipient(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, &domain.Contact{Name: "Lakshmi Rao", Phone: "+91 80 4000 1234", Email: "lakshmi@annadaan.org"}, rec.Contact)

	rec, err = newScanRepo(&logs).scanRecipient(context.Background(), fakeRow{openHours: []byte(`[]`)})
	require.NoError(t, err)
	assert.Nil(t, rec.Contact)
}

func TestScanRecipient_ScanErrors(t *testing.T) {
	var logs bytes.Buffer
	r := newScanRepo(&logs)

	_, err := r.scanRecipient(context.Background(), fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	broken := errors.New("conn closed")
	_, err = r.scanRecipient(context.Background(), fakeRow{err: broken})
	assert.ErrorIs(t, err, broken)
}
