package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
	"github.com/mamadbah2/caskwarehouse/internal/repository"
	"github.com/mamadbah2/caskwarehouse/internal/repository/mongodb"
	"github.com/mamadbah2/caskwarehouse/internal/repository/sheets"
	"github.com/mamadbah2/caskwarehouse/internal/scheduler"
	"github.com/mamadbah2/caskwarehouse/internal/server/handlers"
	"github.com/mamadbah2/caskwarehouse/internal/server/router"
	"github.com/mamadbah2/caskwarehouse/internal/service/alerting"
	"github.com/mamadbah2/caskwarehouse/internal/workflow"
	"github.com/mamadbah2/caskwarehouse/pkg/clients/chain"
	warehouseclient "github.com/mamadbah2/caskwarehouse/pkg/clients/warehouse"
	whatsappclient "github.com/mamadbah2/caskwarehouse/pkg/clients/whatsapp"
)

var (
	workflowConfigPath string
	runAsOf            string
	runPayload         string
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Run the reserve oracle workflows",
	Long: `Run the oracle workflows that read the warehouse API and publish reports.

Available subcommands:
  list  - Show registered workflows and their schedules
  run   - Execute one workflow once
  serve - Start the cron scheduler and the lifecycle trigger endpoint`,
}

var workflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show registered workflows and their schedules",
	RunE:  runWorkflowsList,
}

var workflowsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Execute one workflow once",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowsRun,
}

var workflowsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cron scheduler and the lifecycle trigger endpoint",
	RunE:  runWorkflowsServe,
}

func init() {
	workflowsCmd.PersistentFlags().StringVar(&workflowConfigPath, "config", "", "Workflow YAML (default: $WORKFLOW_CONFIG_PATH or config/workflows.yaml)")
	workflowsRunCmd.Flags().StringVar(&runAsOf, "as-of", "", "Snapshot time, ISO-8601 (default: now floored to the minute)")
	workflowsRunCmd.Flags().StringVar(&runPayload, "payload", "", "Trigger payload for lifecycle-webhook, JSON or @file")

	workflowsCmd.AddCommand(workflowsListCmd)
	workflowsCmd.AddCommand(workflowsRunCmd)
	workflowsCmd.AddCommand(workflowsServeCmd)
}

// app bundles the wired runner with what must be closed on exit.
type app struct {
	cfg     *config.WorkflowConfig
	runner  *workflow.Runner
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWorkflow(workflowConfigPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	var chainClient workflow.Chain
	if cfg.RPCURL != "" {
		client, err := chain.Dial(ctx, chain.Config{
			RPCURL:          cfg.RPCURL,
			ContractAddress: cfg.ContractAddress,
			ChainSelector:   cfg.ChainSelector,
			PrivateKey:      cfg.ChainPrivateKey,
			GasLimit:        cfg.GasLimit(),
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		chainClient = client
	} else {
		log.Warn("rpcUrl not set, chain reads use tokenSupplyUnits and reports cannot be broadcast")
	}

	var ledger sheets.AttestationLedger
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, log.Named("repo.sheets"))
		if err != nil {
			a.Close()
			return nil, err
		}
		ledger = repo
	}

	var notifier alerting.Notifier
	if cfg.WhatsApp.Enabled() {
		notifier = alerting.NewWhatsAppNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.AlertTo, log.Named("svc.alerting"))
	}

	var runs repository.RunRepository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		})
		runs = mongoRepo
	}

	api := warehouseclient.NewClient(cfg.APIBaseURL, cfg.LifecycleAPIKey)
	rt := workflow.NewRuntime(cfg, api, chainClient, log.Named("workflow"))
	a.runner = workflow.NewRunner(runs, log,
		workflow.NewProofOfReserve(rt, ledger, notifier),
		workflow.NewPhysicalAttributes(rt),
		workflow.NewLifecycleReconcile(rt),
		workflow.NewLifecycleWebhook(rt),
	)
	return a, nil
}

func runWorkflowsList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWorkflow(workflowConfigPath)
	if err != nil {
		return err
	}
	s := scheduler.NewScheduler(cfg, nil, nil)
	schedules := s.Schedules()
	out := cmd.OutOrStdout()
	for _, name := range []string{
		workflow.NameProofOfReserve,
		workflow.NamePhysicalAttributes,
		workflow.NameLifecycleReconcile,
	} {
		fmt.Fprintf(out, "%-22s cron  %s\n", name, schedules[name])
	}
	fmt.Fprintf(out, "%-22s http  POST %s/trigger/lifecycle\n", workflow.NameLifecycleWebhook, cfg.LifecycleWebhook.ListenAddr)
	return nil
}

func runWorkflowsRun(cmd *cobra.Command, args []string) error {
	trigger := workflow.Trigger{Source: workflow.SourceManual}
	if runAsOf != "" {
		asOf, err := units.ParseISO(runAsOf)
		if err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
		trigger.ScheduledTime = asOf
	}
	payload, err := readPayload(runPayload)
	if err != nil {
		return err
	}
	trigger.Payload = payload

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.runner.Run(cmd.Context(), args[0], trigger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runWorkflowsServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewScheduler(a.cfg, a.runner, log.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	triggerHandler := handlers.NewTriggerHandler(a.runner, a.cfg.LifecycleWebhook.AuthorizedKeys, log.Named("handlers.trigger"))
	if len(a.cfg.LifecycleWebhook.AuthorizedKeys) == 0 {
		log.Warn("lifecycleWebhook.authorizedKeys is empty, trigger requests are not authenticated")
	}
	srv := &http.Server{
		Addr:         a.cfg.LifecycleWebhook.ListenAddr,
		Handler:      router.NewTriggerRouter(triggerHandler, log.Named("router")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("trigger server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("trigger server crashed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

func readPayload(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	if path, ok := strings.CutPrefix(value, "@"); ok {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return raw, nil
	}
	return []byte(value), nil
}
