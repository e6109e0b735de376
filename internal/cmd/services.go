package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/events"
	"github.com/munchkineatter/DDrum/internal/plans"
	"github.com/munchkineatter/DDrum/internal/timer"
	"github.com/munchkineatter/DDrum/internal/winners"
)

type Services struct {
	Plans   *plans.App
	Winners *winners.App
	Timer   *timer.Engine
}

// setupServices wires repositories, apps and the timer engine. A nil
// database selects the in-memory repositories for degraded operation.
func setupServices(ctx context.Context, database *sql.DB, bus events.Bus, exportDir string) (*Services, error) {
	clock := clockwork.NewRealClock()

	var (
		planRepo   plans.Repository
		winnerRepo winners.Repository
	)
	if database != nil {
		pg := plans.NewPostgresRepository(database)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure plans schema: %w", err)
		}
		wpg := winners.NewPostgresRepository(database)
		if err := wpg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure winners schema: %w", err)
		}
		planRepo = pg
		winnerRepo = wpg
	} else {
		log.Warn().Msg("running with in-memory storage, state is lost on restart")
		planRepo = plans.NewMemoryRepository()
		winnerRepo = winners.NewMemoryRepository()
	}

	plansApp := plans.NewApp(planRepo, bus, clock)
	winnersApp := winners.NewApp(winnerRepo, bus, clock, plansApp)
	plansApp.SetWinnerSource(winnersApp)
	plansApp.SetExporter(&winners.CSVFileExporter{Dir: exportDir})

	return &Services{
		Plans:   plansApp,
		Winners: winnersApp,
		Timer:   timer.NewEngine(bus, clock),
	}, nil
}
