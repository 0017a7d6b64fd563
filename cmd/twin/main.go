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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"twinline/internal/app"
	"twinline/internal/config"
	"twinline/internal/db"
	"twinline/internal/domain"
	"twinline/internal/engine"
	"twinline/internal/logging"
	"twinline/internal/repo"
	"twinline/internal/server"
	"twinline/internal/twin"
)

var rootCmd = &cobra.Command{
	Use:   "twin",
	Short: "Twinline CLI",
	Long: `Twinline keeps a causal digital twin of an organisation and uses it to project the
effect of transformation interventions and to plan towards a goal.
- State: maturity, financial and risk metrics plus the causal graph derived from them.
- Snapshot: a saved state; the latest snapshot is the current state for the CLI.
- Simulate: project a state forward under interventions (investment, technology, capability, governance, process).
- Optimize: sequence interventions that reach a goal within a horizon.
- Event log: every build, snapshot, simulation and plan, view with 'twin log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TWIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("org", "", "organisation id (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: info, debug or trace (overrides config)")
	for _, name := range []string{"workspace", "json", "actor-id", "org", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(optimizeCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(authCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage twin.yml",
		Long:  "twin.yml names the organisation and sets the default horizon, server options, log level and webhooks.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default twin.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			org := strings.TrimSpace(viper.GetString("org"))
			if org == "" {
				org = app.DefaultOrgID
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(org)), 0o644); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"path": path, "organisation": org})
			}
			fmt.Printf("Wrote %s for organisation %s\n", path, org)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"), viper.GetString("org"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate twin.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func stateCmd() *cobra.Command {
	st := &cobra.Command{
		Use:   "state",
		Short: "Build and inspect twin states",
	}
	st.AddCommand(stateBuildCmd())
	st.AddCommand(stateShowCmd())
	return st
}

func stateBuildCmd() *cobra.Command {
	var file, label, ts string
	var save bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a state from a context file",
		Long:  "Reads a YAML or JSON context (maturity, financial, risk, capabilities, roadmap). Missing values take defaults and out-of-range values are clamped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var c twin.Context
			if file != "" {
				var err error
				if c, err = app.LoadContextFile(file); err != nil {
					return err
				}
			}
			var at time.Time
			if ts != "" {
				parsed, err := time.Parse(time.RFC3339, ts)
				if err != nil {
					return fmt.Errorf("--timestamp: %w", err)
				}
				at = parsed
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.BuildState(ctx, engine.BuildOptions{
					Context:   c,
					Label:     label,
					Timestamp: at,
					Save:      save,
					ActorID:   viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				printState(res.State)
				if res.Snapshot != nil {
					fmt.Printf("Saved snapshot %s\n", res.Snapshot.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "context file (YAML or JSON)")
	cmd.Flags().StringVar(&label, "label", "", "state label")
	cmd.Flags().StringVar(&ts, "timestamp", "", "state time (RFC3339, default now)")
	cmd.Flags().BoolVar(&save, "save", true, "save the state as a snapshot")
	return cmd
}

func stateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Current(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				printState(s)
				return nil
			})
		},
	}
}

func snapshotCmd() *cobra.Command {
	snap := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved snapshots",
	}
	snap.AddCommand(snapshotListCmd())
	snap.AddCommand(snapshotShowCmd())
	snap.AddCommand(snapshotSaveCmd())
	return snap
}

func snapshotListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Snapshots(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Label", "State time", "Data", "AI", "Risk", "Revenue"})
				for _, s := range items {
					m := s.State.Maturity
					tw.AppendRow(table.Row{s.ID, s.Label, s.StateTS, num(m.DataMaturityIndex), num(m.AIMaturityScore), num(s.State.Risk.Score), money(s.State.Financial.Revenue)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", repo.DefaultLimit, "number of snapshots")
	return cmd
}

func snapshotShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Snapshot(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("Snapshot %s (%s) by %s at %s\n", s.ID, s.Label, s.CreatedBy, s.CreatedAt)
				printState(s.State)
				return nil
			})
		},
	}
}

func snapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the current state again as a new snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if _, err := e.Current(ctx); err != nil {
					return err
				}
				s, err := e.SaveSnapshot(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(snapshotRef(s))
			})
		},
	}
}

func simulateCmd() *cobra.Command {
	var horizon int
	var specs []string
	var snapshotID, file string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Project a state forward under interventions",
		Long: `Projects the current state (or --snapshot, or --file context) forward.
Interventions are given as type:target:intensity[:months], for example
  --intervention investment:ai:0.8 --intervention governance:data:1:6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ivs, err := parseInterventions(specs)
			if err != nil {
				return err
			}
			src, err := sourceFromFlags(snapshotID, file)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rec, err := e.Simulate(ctx, engine.SimulateOptions{
					Source:        src,
					HorizonMonths: horizon,
					Interventions: ivs,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rec)
				}
				res := rec.Result
				fmt.Printf("Simulation %s: %d months ahead (until %s), confidence %.2f-%.2f\n",
					rec.ID, res.MonthsAhead, res.FutureTimestamp.Format("2006-01-02"), res.ConfidenceInterval.Low, res.ConfidenceInterval.High)
				if len(res.InterventionsApplied) > 0 {
					tw := newTable()
					tw.AppendHeader(table.Row{"ID", "Type", "Target", "Intensity", "Months"})
					for _, iv := range res.InterventionsApplied {
						tw.AppendRow(table.Row{iv.ID, iv.Type, iv.Target, iv.Intensity, iv.DurationMonths})
					}
					tw.Render()
				}
				printState(res.State)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 0, "months ahead, clamped to [1,60] (default from config)")
	cmd.Flags().StringArrayVarP(&specs, "intervention", "i", nil, "intervention type:target:intensity[:months] (repeatable)")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "start from a saved snapshot")
	cmd.Flags().StringVarP(&file, "file", "f", "", "start from an ad-hoc context file")
	return cmd
}

func optimizeCmd() *cobra.Command {
	var goalType, snapshotID, file string
	var target float64
	var horizon int
	var minimizeRisk bool
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Plan interventions towards a goal",
		Long:  "Goal types: " + strings.Join(goalTypeNames(), ", ") + ". The horizon is clamped to [6,48] months.",
		RunE: func(cmd *cobra.Command, args []string) error {
			gt, err := twin.ParseGoalType(goalType)
			if err != nil {
				return err
			}
			src, err := sourceFromFlags(snapshotID, file)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rec, err := e.Optimize(ctx, engine.OptimizeOptions{
					Source:  src,
					Goal:    twin.Goal{Type: gt, TargetValue: target, HorizonMonths: horizon, MinimizeRisk: minimizeRisk},
					ActorID: viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rec)
				}
				printPlan(rec)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&goalType, "goal", "g", "", "goal type")
	cmd.Flags().Float64Var(&target, "target", 0, "goal target value")
	cmd.Flags().IntVar(&horizon, "horizon", twin.DefaultGoalHorizonMonths, "planning horizon in months")
	cmd.Flags().BoolVar(&minimizeRisk, "minimize-risk", false, "prefer lower-risk sequencing")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "plan from a saved snapshot")
	cmd.Flags().StringVarP(&file, "file", "f", "", "plan from an ad-hoc context file")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func historyCmd() *cobra.Command {
	h := &cobra.Command{
		Use:   "history",
		Short: "Browse stored simulations and plans",
	}
	var limit int
	sims := &cobra.Command{
		Use:   "simulations [id]",
		Short: "List simulation runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if len(args) == 1 {
					rec, err := e.Simulation(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSONOrTable(rec)
				}
				items, err := e.Simulations(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Created", "By", "Months", "Interventions", "AI", "Revenue"})
				for _, r := range items {
					st := r.Result.State
					tw.AppendRow(table.Row{r.ID, r.CreatedAt, r.CreatedBy, r.HorizonMonths, len(r.Result.InterventionsApplied), num(st.Maturity.AIMaturityScore), money(st.Financial.Revenue)})
				}
				tw.Render()
				return nil
			})
		},
	}
	sims.Flags().IntVarP(&limit, "limit", "n", repo.DefaultLimit, "number of runs")

	var goalType string
	var planLimit int
	plans := &cobra.Command{
		Use:   "plans [id]",
		Short: "List plans, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if len(args) == 1 {
					rec, err := e.Plan(ctx, args[0])
					if err != nil {
						return err
					}
					if viper.GetBool("json") {
						return printJSON(rec)
					}
					printPlan(rec)
					return nil
				}
				items, err := e.Plans(ctx, goalType, planLimit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Created", "Goal", "Target", "Actions", "Months"})
				for _, r := range items {
					tw.AppendRow(table.Row{r.ID, r.CreatedAt, r.Plan.Goal.Type, r.Plan.Goal.TargetValue, len(r.Plan.Actions), r.Plan.TotalDurationMonths})
				}
				tw.Render()
				return nil
			})
		},
	}
	plans.Flags().StringVar(&goalType, "goal-type", "", "goal type filter")
	plans.Flags().IntVarP(&planLimit, "limit", "n", repo.DefaultLimit, "number of plans")

	h.AddCommand(sims, plans)
	return h
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "Every state build, snapshot, simulation and plan is recorded as an event.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var f repo.EventFilter
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evts, err := e.EventLog(ctx, n, 0, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				for _, ev := range evts {
					fmt.Printf("%d %s %s %s/%s by %s %s\n", ev.ID, ev.TS, ev.Type, ev.EntityKind, ev.EntityID, ev.ActorID, ev.Payload)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Serves the twin API. Bearer auth is enabled when server.jwt_secret or TWIN_JWT_SECRET is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if addr == "" {
					addr = e.Config.Server.Addr
				}
				if basePath == "" {
					basePath = e.Config.Server.BasePath
				}
				authCfg := server.AuthConfig{JWTSecret: jwtSecret(e.Config)}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg, Logger: e.Logger})
				if err != nil {
					return err
				}
				if server.StartWebhooks(ctx, e, e.Logger) {
					e.Logger.Info("webhooks enabled", "count", len(e.Config.Webhooks))
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				e.Logger.Info("serving", "org", e.OrgID(), "addr", addr, "base_path", basePath, "auth", authCfg.Enabled())
				fmt.Printf("Serving Twinline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	return cmd
}

func authCmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "auth",
		Short: "API authentication helpers",
	}
	var subject string
	var ttl time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"), viper.GetString("org"))
			if err != nil {
				return err
			}
			if subject == "" {
				subject = viper.GetString("actor-id")
			}
			tok, err := server.IssueToken(jwtSecret(cfg), subject, ttl, time.Now())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"token": tok, "subject": subject, "expires_in": ttl.String()})
			}
			fmt.Println(tok)
			return nil
		},
	}
	token.Flags().StringVar(&subject, "subject", "", "token subject (default --actor-id)")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	a.AddCommand(token)
	return a
}

func jwtSecret(cfg *config.Config) string {
	if s := strings.TrimSpace(viper.GetString("jwt-secret")); s != "" {
		return s
	}
	if cfg == nil {
		return ""
	}
	return cfg.Server.JWTSecret
}

func sourceFromFlags(snapshotID, file string) (engine.Source, error) {
	src := engine.Source{SnapshotID: snapshotID}
	if file != "" {
		c, err := app.LoadContextFile(file)
		if err != nil {
			return engine.Source{}, err
		}
		src.Context = &c
	}
	return src, nil
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, cfg, err := app.OpenWorkspace(ctx, workspace, viper.GetString("org"))
	if err != nil {
		return err
	}
	defer conn.Close()
	level := viper.GetString("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	e := engine.New(conn, cfg)
	e.Logger = logging.NewLogger(level, os.Stderr)
	e.Decisions = logging.NewDecisionLogger(db.Dir(workspace), level)
	defer e.Decisions.Close()
	return fn(ctx, e)
}

func goalTypeNames() []string {
	out := make([]string, len(twin.GoalTypes))
	for i, t := range twin.GoalTypes {
		out[i] = string(t)
	}
	return out
}

func snapshotRef(s domain.Snapshot) map[string]any {
	return map[string]any{"id": s.ID, "label": s.Label, "state_ts": s.StateTS, "created_by": s.CreatedBy}
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printState(s twin.TwinState) {
	tw := newTable()
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Data maturity", fmt.Sprintf("%s (stage %d)", num(s.Maturity.DataMaturityIndex), s.Maturity.DataMaturityStage)},
		{"AI maturity", fmt.Sprintf("%s (stage %d)", num(s.Maturity.AIMaturityScore), s.Maturity.AIMaturityStage)},
		{"Revenue", money(s.Financial.Revenue)},
		{"Margin", num(s.Financial.MarginPct) + "%"},
		{"Profit", money(s.Financial.Profit)},
		{"Valuation", money(s.Financial.Valuation)},
		{"Risk", fmt.Sprintf("%s (%s)", num(s.Risk.Score), s.Risk.Level)},
		{"Open gaps", s.Capabilities.OpenGaps},
		{"Roadmap progress", num(s.Roadmap.ProgressPct) + "%"},
	})
	tw.Render()
}

func printPlan(rec domain.PlanRecord) {
	p := rec.Plan
	fmt.Printf("Plan %s: %s target %v over %d months (uses %d), confidence %.2f\n",
		rec.ID, p.Goal.Type, p.Goal.TargetValue, p.Goal.HorizonMonths, p.TotalDurationMonths, p.ConfidenceScore)
	if len(p.Actions) == 0 {
		fmt.Println("Goal already met; no actions needed.")
	} else {
		tw := newTable()
		tw.AppendHeader(table.Row{"#", "Type", "Target", "Intensity", "Start", "End"})
		for i, a := range p.Actions {
			tw.AppendRow(table.Row{i + 1, a.Intervention.Type, a.Intervention.Target, a.Intervention.Intensity, a.StartMonth, a.EndMonth})
		}
		tw.Render()
	}
	out := p.ProjectedFinalState
	fmt.Printf("Projected: data %s, AI %s, revenue %s, margin %s%%, risk %s\n",
		num(out.Maturity.DataMaturityIndex), num(out.Maturity.AIMaturityScore), money(out.Financial.Revenue), num(out.Financial.MarginPct), num(out.Risk.Score))
	for _, r := range p.Risks {
		fmt.Println("  risk:", r)
	}
	for _, t := range p.TradeOffs {
		fmt.Println("  trade-off:", t)
	}
}

func num(v float64) string   { return fmt.Sprintf("%.1f", v) }
func money(v float64) string { return fmt.Sprintf("%.0f", v) }

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
