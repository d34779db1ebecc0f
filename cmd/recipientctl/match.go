package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harvestlink/recipient-service/internal/domain"
	"github.com/harvestlink/recipient-service/internal/repo"
	"github.com/harvestlink/recipient-service/internal/service"
)

type matchFlags struct {
	snapshot  string
	latitude  float64
	longitude float64
	donation  string
	quantity  int
	unit      string
	storage   string
	pickup    string
	radiusKm  float64
}

func newMatchCmd() *cobra.Command {
	var f matchFlags

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a donation offer against a recipient snapshot",
		Long: `Loads a JSON array of recipients (the API's recipient representation)
into an in-memory spatial index and prints the eligible recipients as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMatch(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.snapshot, "snapshot", "s", "", "Path to a JSON array of recipients")
	cmd.Flags().Float64Var(&f.latitude, "lat", 0, "Donor latitude")
	cmd.Flags().Float64Var(&f.longitude, "lon", 0, "Donor longitude")
	cmd.Flags().StringVarP(&f.donation, "type", "t", "", "Donation type, e.g. Food")
	cmd.Flags().IntVarP(&f.quantity, "quantity", "q", 0, "Donation quantity")
	cmd.Flags().StringVar(&f.unit, "unit", "", "Quantity unit")
	cmd.Flags().StringVar(&f.storage, "storage", "", "Required storage capability, e.g. Refrigerated")
	cmd.Flags().StringVar(&f.pickup, "pickup", "", "Pickup time (RFC 3339); defaults to now")
	cmd.Flags().Float64VarP(&f.radiusKm, "radius", "r", 0, "Search radius in km (default 25)")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("storage")

	return cmd
}

func runMatch(cmd *cobra.Command, f matchFlags) error {
	log := newLogger()

	recipients, err := loadSnapshot(f.snapshot)
	if err != nil {
		return err
	}
	dir := repo.NewMemoryDirectory(recipients...)
	log.Info("snapshot loaded", "path", f.snapshot, "recipients", dir.Len())

	pickup := time.Now()
	if f.pickup != "" {
		if pickup, err = time.Parse(time.RFC3339, f.pickup); err != nil {
			return fmt.Errorf("%w: --pickup must be an RFC 3339 timestamp", domain.ErrInvalidOffer)
		}
	}

	offer := domain.DonationOffer{
		Origin:            domain.GeoPoint{Latitude: f.latitude, Longitude: f.longitude},
		Type:              f.donation,
		Quantity:          f.quantity,
		Unit:              f.unit,
		StorageCapability: f.storage,
		PickupAt:          pickup,
	}
	var radius *float64
	if cmd.Flags().Changed("radius") {
		radius = &f.radiusKm
	}

	svc := service.NewMatchService(dir, domain.DefaultRadiusKm, log, nil)
	views, err := svc.Match(cmd.Context(), offer, radius)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

// loadSnapshot reads a JSON array of recipient views from path.
func loadSnapshot(path string) ([]domain.Recipient, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var views []domain.RecipientView
	if err := json.Unmarshal(b, &views); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	recipients := make([]domain.Recipient, 0, len(views))
	for i, v := range views {
		r, err := service.FromView(v)
		if err != nil {
			return nil, fmt.Errorf("snapshot entry %d: %w", i, err)
		}
		recipients = append(recipients, r)
	}
	return recipients, nil
}
