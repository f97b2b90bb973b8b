package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/archonkernel/governance-kernel/pkg/branchledger"
	"github.com/archonkernel/governance-kernel/pkg/branchservice"
	"github.com/archonkernel/governance-kernel/pkg/clock"
	"github.com/archonkernel/governance-kernel/pkg/config"
	"github.com/archonkernel/governance-kernel/pkg/events"
	"github.com/archonkernel/governance-kernel/pkg/findingledger"
	"github.com/archonkernel/governance-kernel/pkg/kvdb"
	"github.com/archonkernel/governance-kernel/pkg/metrics"
	"github.com/archonkernel/governance-kernel/pkg/orchestrator"
	"github.com/archonkernel/governance-kernel/pkg/permission"
	"github.com/archonkernel/governance-kernel/pkg/persistence/firestore"
	"github.com/archonkernel/governance-kernel/pkg/persistence/postgres"
	"github.com/archonkernel/governance-kernel/pkg/propagation"
	"github.com/archonkernel/governance-kernel/pkg/rolecollapse"
	"github.com/archonkernel/governance-kernel/pkg/rules"
	"github.com/archonkernel/governance-kernel/pkg/server"
	"github.com/archonkernel/governance-kernel/pkg/statemachine"
	"github.com/archonkernel/governance-kernel/pkg/watchdog"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("starting governance kernel")

	var (
		kernelID   = flag.String("kernel-id", "", "kernel instance id (overrides KERNEL_ID env var)")
		policyPath = flag.String("rules-policy", "", "path to rules policy YAML (overrides RULES_POLICY_PATH env var)")
		showHelp   = flag.Bool("help", false, "show help message")
	)
	flag.Parse()

	if *showHelp {
		flag.Usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if *kernelID != "" {
		cfg.KernelID = *kernelID
	}
	if *policyPath != "" {
		cfg.RulesPolicyPath = *policyPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	log.Printf("kernel id: %s", cfg.KernelID)

	kernelPolicy, err := config.LoadKernelPolicy(os.Getenv("KERNEL_POLICY_PATH"))
	if err != nil {
		log.Fatalf("load kernel policy: %v", err)
	}
	log.Printf("kernel policy: watchdog timeout=%s escalation steps=%d judicial quorum=%d",
		kernelPolicy.Watchdog.DefaultTimeout.Duration(),
		len(kernelPolicy.Escalation.BackoffLadder),
		kernelPolicy.Judicial.DefaultQuorumSize)

	rs, err := rules.Load(cfg.RulesPolicyPath)
	if err != nil {
		log.Fatalf("load rules policy %s: %v", cfg.RulesPolicyPath, err)
	}

	kv, err := kvdb.Open(kvdb.Backend(cfg.KVBackend), cfg.KVName, cfg.DataDir)
	if err != nil {
		log.Fatalf("open kv store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	clk := clock.System{}
	wlog := witness.NewLog(kv, "witness", clk)
	bl := branchledger.New()
	detector := rolecollapse.New(rs, bl, clk)
	machine := statemachine.New(clk, wlog, m)
	wd := watchdog.New(clk, wlog, m)
	propagator := propagation.New(clk, wd, wlog)
	services := branchservice.Map(log.New(log.Writer(), "[BranchService] ", log.LstdFlags))
	orch := orchestrator.New(clk, machine, detector, wlog, services, propagator, m)
	evaluator := permission.New(rs, detector, wlog, m)
	findingSink := events.LogSink{Logger: log.New(log.Writer(), "[Findings] ", log.LstdFlags)}
	findings := findingledger.New(kv, "findings", clk, findingSink, m)

	if cfg.MetricsEnabled {
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
	}

	if cfg.PostgresEnabled {
		log.Println("connecting to postgres durable mirror...")
		pgClient, err := postgres.NewClient(cfg, postgres.WithLogger(
			log.New(log.Writer(), "[Postgres] ", log.LstdFlags),
		))
		if err != nil {
			log.Printf("postgres mirror disabled: connection failed: %v", err)
		} else {
			defer pgClient.Close()
			if err := pgClient.MigrateUp(ctx); err != nil {
				log.Printf("postgres migration failed: %v", err)
			} else {
				log.Println("postgres durable mirror ready")
			}
		}
	} else {
		log.Println("postgres durable mirror disabled (set POSTGRES_ENABLED=true to enable)")
	}

	if cfg.FirestoreEnabled {
		log.Println("connecting to firestore real-time mirror...")
		fsClient, err := firestore.NewClient(ctx, cfg)
		if err != nil {
			log.Printf("firestore mirror disabled: connection failed: %v", err)
		} else {
			defer fsClient.Close()
			log.Println("firestore real-time mirror ready")
		}
	} else {
		log.Println("firestore real-time mirror disabled (set FIRESTORE_ENABLED=true to enable)")
	}

	srv := server.New(clk, orch, evaluator, machine, wlog, findings,
		log.New(log.Writer(), "[GovernanceAPI] ", log.LstdFlags))

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	go func() {
		log.Printf("governance kernel API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down governance kernel...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}

	log.Println("governance kernel stopped")
}
