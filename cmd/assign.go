package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gep-platform/assignd/config"
	"github.com/gep-platform/assignd/core/assign"
	"github.com/gep-platform/assignd/core/audit"
	"github.com/gep-platform/assignd/core/model"
	"github.com/gep-platform/assignd/infra/logger"
	"github.com/gep-platform/assignd/infra/mqtt"
	"github.com/gep-platform/assignd/infra/store"
	"github.com/gep-platform/assignd/internal/eventbus"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Run a sample assignment against an in-memory directory",
	RunE:  assignSample,
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

func assignSample(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("assign-command")
	dir := store.NewMemoryDirectory()
	notifier := mqtt.NewMockNotifier()
	bus := eventbus.New()

	window := model.TimeWindow{Start: time.Now(), End: time.Now().Add(14 * 24 * time.Hour)}
	req := model.Request{
		ID:               "sample-request",
		ServiceType:      model.ServiceDoctor,
		Installation:     model.Location{City: "Athens", Lat: 37.9838, Lon: 23.7275},
		EmployeeCoverage: 120,
		Window:           window,
		EstimatedHours:   16,
		Status:           model.RequestPending,
	}
	dir.PutRequest(req)
	partners := []model.Partner{
		{ID: "doc-1", Name: "A. Papadopoulou", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{City: "Athens", Lat: 37.99, Lon: 23.73}, HourlyRate: 55, MaxWeeklyHours: 30, Active: true},
		{ID: "doc-2", Name: "G. Nikolaou", Specialty: model.SpecialtyOccupationalDoctor, Home: model.Location{City: "Piraeus", Lat: 37.94, Lon: 23.65}, HourlyRate: 48, MaxWeeklyHours: 25, Active: true},
	}
	for _, p := range partners {
		dir.PutPartner(p)
		dir.PutAvailability(model.AvailabilitySnapshot{
			PartnerID: p.ID,
			Window:    window,
			Days: []model.DayAvailability{
				{Date: window.Start, FreeHours: 8},
				{Date: window.Start.Add(24 * time.Hour), FreeHours: 8},
				{Date: window.Start.Add(48 * time.Hour), FreeHours: 8},
			},
		})
	}

	filter := assign.NewHardConstraintFilter(dir, cfg.Engine)
	scorer, err := assign.NewWeightedScorer(cfg.Weights, cfg.Engine)
	if err != nil {
		return fmt.Errorf("scorer: %w", err)
	}
	manager, err := assign.NewManager(filter, scorer, assign.NewMemoryAssignmentStore(), audit.NewMemoryStore(), dir, dir, notifier, cfg.Engine, nil, bus, logg)
	if err != nil {
		return fmt.Errorf("assignment manager: %w", err)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			logg.Errorf("manager close: %v", err)
		}
	}()

	out, err := manager.Assign(context.Background(), req.ID)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	if out.Escalated {
		return fmt.Errorf("no eligible partner: %s", out.Reason)
	}
	a := out.Assignment
	fmt.Printf("proposed %s to partner %s (score %.3f, cost %.2f, respond by %s)\n",
		a.ID, a.PartnerID, a.Score, a.Cost, a.ResponseDeadline.Format(time.RFC3339))
	for _, s := range out.Run.Scores {
		fmt.Printf("  #%d %s composite=%.3f location=%.3f availability=%.3f cost=%.3f specialty=%.3f\n",
			s.Rank, s.PartnerID, s.Composite, s.Location, s.Availability, s.Cost, s.Specialty)
	}
	return nil
}
