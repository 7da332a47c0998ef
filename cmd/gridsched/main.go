// Command gridsched runs a minimal standalone energy-scheduling process:
// it assembles one demonstration bus (a single Balance fed by one Flow),
// ticks it forward on a schedule, and serves introspection over HTTP.
// Real deployments assemble their own model through internal/assembly
// and internal/model directly — this binary exists to smoke-test the
// kernel end to end and as a template for a caller's own main.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/gridsched/internal/assembly"
	"github.com/aristath/gridsched/internal/config"
	"github.com/aristath/gridsched/internal/horizon"
	"github.com/aristath/gridsched/internal/model"
	"github.com/aristath/gridsched/internal/param"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/scheduler"
	"github.com/aristath/gridsched/internal/server"
	"github.com/aristath/gridsched/internal/timeutil"
	"github.com/aristath/gridsched/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting gridsched")

	p := problem.New(log)
	if err := cfg.Tunables.Apply(p); err != nil {
		log.Fatal().Err(err).Msg("failed to apply solver tunables")
	}

	a, err := buildDemoAssembly()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build demonstration assembly")
	}

	if err := a.BuildHorizons(); err != nil {
		log.Fatal().Err(err).Msg("failed to build horizons")
	}
	if err := a.Build(p); err != nil {
		log.Fatal().Err(err).Msg("failed to build problem")
	}
	if err := a.SetConstants(p); err != nil {
		log.Fatal().Err(err).Msg("failed to set constants")
	}
	if err := a.CheckInvariants(); err != nil {
		log.Fatal().Err(err).Msg("assembly invariants violated")
	}

	start := timeutil.New(time.Now(), time.Now())
	step := func(pt timeutil.ProbTime) timeutil.ProbTime { return pt.Advance(time.Hour) }
	tick := scheduler.NewSolveTick(a, p, log, start, step)

	if err := tick.Run(); err != nil {
		log.Fatal().Err(err).Msg("initial solve failed")
	}

	sched := scheduler.New(log)
	if err := sched.AddJob("@every 1h", tick); err != nil {
		log.Fatal().Err(err).Msg("failed to register solve tick")
	}
	sched.Start()

	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		DevMode:  cfg.DevMode,
		Problem:  p,
		Assembly: a,
		Tick:     tick,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("introspection server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("introspection server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("introspection server forced to shutdown")
	}
	log.Info().Msg("gridsched stopped")
}

// buildDemoAssembly wires one Balance fed by one Flow over a 24-hour,
// hourly horizon — just enough structure to exercise the full solve
// cascade on a fresh checkout.
func buildDemoAssembly() (*assembly.Assembly, error) {
	periods, err := horizon.NewSequentialPeriods([]horizon.PeriodBlock{{N: 24, Duration: time.Hour}})
	if err != nil {
		return nil, err
	}
	h := horizon.NewSequentialHorizon(periods, 0)

	balId := problem.Id{Concept: "BALANCE", Instance: "demo-bus"}
	flowId := problem.Id{Concept: "FLOW", Instance: "demo-gen"}

	cost := model.NewSumCost()
	cost.Add(problem.Id{Concept: "COST", Instance: "demo-gen-price"}, param.Constant(20))

	bal := &model.Balance{Id: balId, H: h}
	flow := &model.Flow{
		Id:     flowId,
		H:      h,
		Arrows: []model.Arrow{{Balance: balId, Ingoing: true, Conversion: param.PlusOne}},
		Upper:  param.Constant(100),
		Cost:   cost,
	}

	toplevel := map[problem.Id]any{balId: bal, flowId: flow}
	return assembly.FromResolved(toplevel, nil, nil), nil
}
