package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/harvestlink/recipient-service/internal/domain"
)

// RecipientRepo defines the administration operations for recipients.
// Matching never goes through this interface; it only reads via RecipientDirectory.
type RecipientRepo interface {
	// Create inserts a recipient and all of its nested collections atomically
	// and returns the persisted aggregate (with DB-generated id and created_at).
	Create(ctx context.Context, r domain.Recipient) (domain.Recipient, error)

	// GetByID retrieves a full aggregate by its UUID.
	// Returns domain.ErrNotFound if no recipient with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Recipient, error)

	// Delete removes a recipient; nested rows go with it via ON DELETE CASCADE.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgRecipientRepo is the PostGIS implementation of RecipientRepo and RecipientDirectory.
type pgRecipientRepo struct {
	db     db
	logger *slog.Logger
}

// NewRecipientRepo constructs a RecipientRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRecipientRepo(db db, logger *slog.Logger) RecipientRepo {
	return newPgRecipientRepo(db, logger)
}

// NewPostgresDirectory constructs a RecipientDirectory over the same tables.
func NewPostgresDirectory(db db, logger *slog.Logger) RecipientDirectory {
	return newPgRecipientRepo(db, logger)
}

func newPgRecipientRepo(db db, logger *slog.Logger) *pgRecipientRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgRecipientRepo{db: db, logger: logger}
}

// selectRecipient assembles the aggregate in one round trip. Nested
// collections come back as JSON arrays so a single row carries everything.
const selectRecipient = `
	SELECT r.id, r.name, r.address, r.description, r.latitude, r.longitude,
	       r.status, r.timezone, r.created_at,
	       COALESCE((SELECT json_agg(json_build_object(
	                    'type', t.type, 'min_quantity', t.min_quantity, 'unit', t.unit) ORDER BY t.id)
	                 FROM accepted_types t WHERE t.recipient_id = r.id), '[]'::json),
	       COALESCE((SELECT json_agg(s.capability ORDER BY s.capability)
	                 FROM storage_capabilities s WHERE s.recipient_id = r.id), '[]'::json),
	       COALESCE((SELECT json_agg(c.capability ORDER BY c.capability)
	                 FROM special_capabilities c WHERE c.recipient_id = r.id), '[]'::json),
	       COALESCE((SELECT json_agg(json_build_object(
	                    'day', h.day_of_week, 'open', h.open_time::text, 'close', h.close_time::text) ORDER BY h.id)
	                 FROM open_hours h WHERE h.recipient_id = r.id), '[]'::json),
	       (SELECT json_build_object('name', ct.name, 'phone', ct.phone, 'email', ct.email)
	          FROM contacts ct WHERE ct.recipient_id = r.id ORDER BY ct.id LIMIT 1)
	FROM recipients r`

// Query runs the coarse spatial and capability filter inside Postgres.
// ST_DWithin with use_spheroid=false measures on the same sphere as
// domain.DistanceMeters, so the result agrees with DirectoryQuery.Screen.
func (r *pgRecipientRepo) Query(ctx context.Context, q DirectoryQuery) ([]domain.Recipient, error) {
	const where = `
	WHERE r.status = 'active'
	  AND ST_DWithin(
	        r.location,
	        ST_SetSRID(ST_MakePoint(@longitude, @latitude), 4326)::geography,
	        @radius,
	        false)
	  AND EXISTS (
	        SELECT 1 FROM accepted_types t
	        WHERE t.recipient_id = r.id
	          AND t.type = @type
	          AND t.min_quantity <= @quantity)
	  AND EXISTS (
	        SELECT 1 FROM storage_capabilities s
	        WHERE s.recipient_id = r.id
	          AND s.capability = @storage)
	ORDER BY r.id`

	args := pgx.NamedArgs{
		"longitude": q.Center.Longitude,
		"latitude":  q.Center.Latitude,
		"radius":    q.RadiusMeters,
		"type":      q.Type,
		"quantity":  q.Quantity,
		"storage":   q.StorageCapability,
	}

	rows, err := r.db.Query(ctx, selectRecipient+where, args)
	if err != nil {
		return nil, fmt.Errorf("repo.RecipientDirectory.Query: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	recipients := []domain.Recipient{}
	for rows.Next() {
		rec, err := r.scanRecipient(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RecipientDirectory.Query: scan: %w: %w", domain.ErrStoreUnavailable, err)
		}
		recipients = append(recipients, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RecipientDirectory.Query: rows: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return recipients, nil
}

// Create inserts the recipient row and its collections in one transaction.
func (r *pgRecipientRepo) Create(ctx context.Context, rec domain.Recipient) (domain.Recipient, error) {
	var id uuid.UUID
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO recipients (name, address, description, latitude, longitude, location, status, timezone)
			VALUES (@name, @address, @description, @latitude, @longitude,
			        ST_SetSRID(ST_MakePoint(@longitude, @latitude), 4326)::geography,
			        @status, @timezone)
			RETURNING id`

		var pgID pgtype.UUID
		err := tx.QueryRow(ctx, q, pgx.NamedArgs{
			"name":        rec.Name,
			"address":     rec.Address,
			"description": rec.Description,
			"latitude":    rec.Location.Latitude,
			"longitude":   rec.Location.Longitude,
			"status":      string(rec.Status),
			"timezone":    rec.Timezone,
		}).Scan(&pgID)
		if err != nil {
			return fmt.Errorf("insert recipient: %w", err)
		}
		id = uuid.UUID(pgID.Bytes)

		for _, rule := range rec.AcceptanceRules {
			_, err := tx.Exec(ctx, `
				INSERT INTO accepted_types (recipient_id, type, min_quantity, unit)
				VALUES (@recipient_id, @type, @min_quantity, @unit)`,
				pgx.NamedArgs{"recipient_id": id, "type": rule.Type, "min_quantity": rule.MinQuantity, "unit": rule.Unit})
			if err != nil {
				return fmt.Errorf("insert accepted type: %w", err)
			}
		}
		for _, c := range rec.StorageCapabilities {
			_, err := tx.Exec(ctx, `
				INSERT INTO storage_capabilities (recipient_id, capability)
				VALUES (@recipient_id, @capability)
				ON CONFLICT DO NOTHING`,
				pgx.NamedArgs{"recipient_id": id, "capability": c})
			if err != nil {
				return fmt.Errorf("insert storage capability: %w", err)
			}
		}
		for _, c := range rec.SpecialCapabilities {
			_, err := tx.Exec(ctx, `
				INSERT INTO special_capabilities (recipient_id, capability)
				VALUES (@recipient_id, @capability)
				ON CONFLICT DO NOTHING`,
				pgx.NamedArgs{"recipient_id": id, "capability": c})
			if err != nil {
				return fmt.Errorf("insert special capability: %w", err)
			}
		}
		for _, iv := range rec.OpenIntervals {
			_, err := tx.Exec(ctx, `
				INSERT INTO open_hours (recipient_id, day_of_week, open_time, close_time)
				VALUES (@recipient_id, @day, @open::time, @close::time)`,
				pgx.NamedArgs{
					"recipient_id": id,
					"day":          domain.WeekdayToken(iv.Day),
					"open":         iv.Open.String(),
					"close":        iv.Close.String(),
				})
			if err != nil {
				return fmt.Errorf("insert open hour: %w", err)
			}
		}
		if c := rec.Contact; c != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO contacts (recipient_id, name, phone, email)
				VALUES (@recipient_id, @name, @phone, @email)`,
				pgx.NamedArgs{"recipient_id": id, "name": c.Name, "phone": c.Phone, "email": c.Email})
			if err != nil {
				return fmt.Errorf("insert contact: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Recipient{}, fmt.Errorf("repo.RecipientRepo.Create: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a recipient aggregate by primary key.
func (r *pgRecipientRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Recipient, error) {
	row := r.db.QueryRow(ctx, selectRecipient+` WHERE r.id = @id`, pgx.NamedArgs{"id": id})
	result, err := r.scanRecipient(ctx, row)
	if err != nil {
		return domain.Recipient{}, fmt.Errorf("repo.RecipientRepo.GetByID: %w", err)
	}
	return result, nil
}

// Delete removes a recipient by primary key.
func (r *pgRecipientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recipients WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.RecipientRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RecipientRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// openHourRow is the JSON shape of one aggregated open_hours row.
type openHourRow struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// scanRecipient maps one selectRecipient row into a domain.Recipient.
// Only a failed Scan is returned as an error. A nested collection that does
// not decode is logged and left empty, which keeps one bad record from failing
// a whole directory query; an empty rule, storage or open-hours set then
// excludes the recipient from matching.
func (r *pgRecipientRepo) scanRecipient(ctx context.Context, s scanner) (domain.Recipient, error) {
	var (
		rec                      domain.Recipient
		id                       pgtype.UUID
		status                   string
		rulesRaw, storageRaw     []byte
		specialRaw, openHoursRaw []byte
		contactRaw               []byte
	)

	err := s.Scan(
		&id, &rec.Name, &rec.Address, &rec.Description,
		&rec.Location.Latitude, &rec.Location.Longitude,
		&status, &rec.Timezone, &rec.CreatedAt,
		&rulesRaw, &storageRaw, &specialRaw, &openHoursRaw, &contactRaw,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Recipient{}, domain.ErrNotFound
		}
		return domain.Recipient{}, err
	}

	rec.ID = uuid.UUID(id.Bytes)
	rec.Status = domain.RecipientStatus(status)

	skip := func(collection string, err error) {
		r.logger.WarnContext(ctx, "skipping undecodable recipient data",
			"recipient_id", rec.ID,
			"collection", collection,
			"error", err,
		)
	}

	if err := json.Unmarshal(rulesRaw, &rec.AcceptanceRules); err != nil {
		rec.AcceptanceRules = nil
		skip("accepted_types", err)
	}
	if err := json.Unmarshal(storageRaw, &rec.StorageCapabilities); err != nil {
		rec.StorageCapabilities = nil
		skip("storage_capabilities", err)
	}
	if err := json.Unmarshal(specialRaw, &rec.SpecialCapabilities); err != nil {
		rec.SpecialCapabilities = nil
		skip("special_capabilities", err)
	}
	if intervals, err := decodeOpenHours(openHoursRaw); err != nil {
		rec.OpenIntervals = []domain.OpenInterval{}
		skip("open_hours", err)
	} else {
		rec.OpenIntervals = intervals
	}
	if contactRaw != nil {
		var c domain.Contact
		if err := json.Unmarshal(contactRaw, &c); err != nil {
			skip("contacts", err)
		} else {
			rec.Contact = &c
		}
	}

	return rec, nil
}

// decodeOpenHours converts the aggregated open_hours JSON. Any bad row fails
// the whole set so a recipient is never treated as open on a partial schedule.
func decodeOpenHours(raw []byte) ([]domain.OpenInterval, error) {
	var hours []openHourRow
	if err := json.Unmarshal(raw, &hours); err != nil {
		return nil, err
	}
	intervals := make([]domain.OpenInterval, 0, len(hours))
	for _, h := range hours {
		iv, err := openIntervalFromRow(h)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func openIntervalFromRow(h openHourRow) (domain.OpenInterval, error) {
	day, err := domain.ParseWeekday(h.Day)
	if err != nil {
		return domain.OpenInterval{}, err
	}
	open, err := domain.ParseTimeOfDay(h.Open)
	if err != nil {
		return domain.OpenInterval{}, err
	}
	closing, err := domain.ParseTimeOfDay(h.Close)
	if err != nil {
		return domain.OpenInterval{}, err
	}
	return domain.OpenInterval{Day: day, Open: open, Close: closing}, nil
}
