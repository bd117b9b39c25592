package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ramzan/internal/blob"
	"ramzan/internal/calendar"
	"ramzan/internal/config"
	"ramzan/internal/dashboard"
	"ramzan/internal/logger"
	"ramzan/internal/model"
	"ramzan/internal/ops"
	"ramzan/internal/prayer"
	"ramzan/internal/serverapp"
	"ramzan/internal/task"
)

// StoreOpener opens the configured blob store (swappable in tests).
type StoreOpener func(ctx context.Context, cfg config.StoreConfig) (blob.Store, func() error, error)

type app struct {
	stdout    io.Writer
	stderr    io.Writer
	clock     calendar.Clock
	provider  prayer.Provider
	openStore StoreOpener

	configPath string
	envFile    string

	cfg        *config.Config
	log        *logger.Logger
	store      blob.Store
	closeStore func() error
	repo       *task.Repo
}

func newApp() *app {
	return &app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		clock:     calendar.RealClock{},
		openStore: serverapp.OpenStore,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ramzan:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ramzan",
		Short:         "ramzan - daily task tracker and prayer times",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to ramzan.yaml")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "optional .env file (default ./.env)")

	root.AddCommand(
		newTasksCmd(a),
		newToggleCmd(a),
		newCalendarCmd(a),
		newDashboardCmd(a),
		newExportICSCmd(a),
		newServeCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newDrillCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	cfg, err := config.Resolve(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(a.stderr, logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		TimeFormat: time.RFC3339,
	})

	store, closeFn, err := a.openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store, a.closeStore = store, closeFn
	a.repo = task.NewRepo(store, a.log)
	if a.provider == nil {
		p := cfg.Prayer
		a.provider = prayer.NewAlAdhan(p.BaseURL, p.City, p.Country, p.Timeout)
	}
	return nil
}

// teardown closes the store; it runs whether or not the command failed.
func (a *app) teardown() error {
	if a.closeStore == nil {
		return nil
	}
	err := a.closeStore()
	a.closeStore = nil
	return err
}

func (a *app) today() calendar.Date {
	return calendar.Today(a.clock)
}

// dateFlag parses --date, defaulting to today.
func (a *app) dateFlag(raw string) (calendar.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return a.today(), nil
	}
	d, err := calendar.ParseKey(raw)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}

	var d task.Draft
	var kind string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an everyday or regular task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Type = model.Kind(kind)
			d.SetDate = cmd.Flags().Changed("start")
			d.SetDuration = cmd.Flags().Changed("duration")

			t, err := d.Build(task.NewID())
			var derr *task.DraftError
			if errors.As(err, &derr) {
				for _, name := range []string{task.FieldTitle, task.FieldType, task.FieldStartDate, task.FieldDuration} {
					if msg, ok := derr.Fields[name]; ok {
						fmt.Fprintf(a.stderr, "  %s: %s\n", name, msg)
					}
				}
				return err
			}
			if err != nil {
				return err
			}
			t, err = a.repo.Add(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, t.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&d.Title, "title", "t", "", "task title")
	add.Flags().StringVar(&kind, "type", string(model.KindEveryday), "everyday or regular")
	add.Flags().StringVar(&d.StartDate, "start", "", "start date for a regular task (YYYY-MM-DD)")
	add.Flags().StringVar(&d.Duration, "duration", "", "number of days a regular task spans")

	list := &cobra.Command{
		Use:   "list",
		Short: "List every stored task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tWINDOW\tTITLE")
			for _, t := range a.repo.List(cmd.Context()) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Kind(), describeWindow(t), t.Title)
			}
			return tw.Flush()
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.repo.Remove(cmd.Context(), model.TaskID(args[0]))
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

func describeWindow(t model.Task) string {
	w, ok := t.Window()
	switch {
	case t.Kind() == model.KindEveryday:
		return "daily"
	case !ok:
		return "-"
	case w.Days() == 1:
		return w.Start.Key()
	default:
		return w.Start.Key() + ".." + w.End().Key()
	}
}

func newToggleCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task's completion for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dateFlag(date)
			if err != nil {
				return err
			}
			t, err := a.repo.Toggle(cmd.Context(), model.TaskID(args[0]), d, a.today())
			switch {
			case errors.Is(err, task.ErrNotEditable):
				fmt.Fprintf(a.stdout, "%s is in the future; nothing changed\n", d)
				return nil
			case errors.Is(err, task.ErrNotFound):
				fmt.Fprintf(a.stdout, "no task %s; nothing changed\n", args[0])
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(a.stdout, "%s %s on %s\n", checkbox(task.IsCompleted(t, d)), t.Title, d)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to toggle (default today)")
	return cmd
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func newCalendarCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the tasks for a date and the month's task dots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dateFlag(date)
			if err != nil {
				return err
			}
			view := task.BuildCalendarView(a.repo.List(cmd.Context()), d, a.today())
			renderCalendar(a.stdout, d, view)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to show (default today)")
	return cmd
}

func renderCalendar(w io.Writer, d calendar.Date, view task.CalendarView) {
	fmt.Fprintf(w, "%s %d\n", d.Month(), d.Year())
	fmt.Fprintln(w, " Mo Tu We Th Fr Sa Su")

	first := calendar.New(d.Year(), d.Month(), 1)
	offset := (int(first.Weekday()) + 6) % 7
	fmt.Fprint(w, strings.Repeat("   ", offset))
	for _, cur := range calendar.DaysInMonth(d.Year(), d.Month()) {
		day := cur.Day()
		mark := " "
		if view.Density[cur.Key()] > 0 {
			mark = "*"
		}
		if cur == d {
			mark = ">"
		}
		fmt.Fprintf(w, "%s%2d", mark, day)
		if (offset+day)%7 == 0 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	suffix := ""
	if !view.Editable {
		suffix = " (read-only)"
	}
	fmt.Fprintf(w, "Tasks for %s%s\n", d, suffix)
	if len(view.Items) == 0 {
		fmt.Fprintln(w, "  nothing scheduled")
		return
	}
	for _, it := range view.Items {
		fmt.Fprintf(w, "  %s %s  (%s)\n", checkbox(it.Completed), it.Task.Title, it.Task.ID)
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's prayer times and task progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !watch {
				res := <-prayer.FetchAsync(ctx, a.provider)
				if !res.Available() {
					a.log.WarnContext(ctx, "prayer times unavailable", "error", res.Err)
				}
				renderDashboard(a.stdout, dashboard.Build(a.repo.List(ctx), res, a.clock.Now()))
				return nil
			}

			tk := &dashboard.Ticker{
				Clock:    a.clock,
				Tasks:    a.repo.List,
				Provider: a.provider,
				Log:      a.log,
				Render: func(s dashboard.Snapshot) {
					fmt.Fprint(a.stdout, "\033[H\033[2J")
					renderDashboard(a.stdout, s)
				},
			}
			if err := tk.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			tk.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing every second")
	return cmd
}

func renderDashboard(w io.Writer, s dashboard.Snapshot) {
	fmt.Fprintf(w, "%s %s  %s\n", s.Weekday, s.Date, s.Time)
	if s.HijriDate != "" {
		fmt.Fprintln(w, s.HijriDate)
	}
	fmt.Fprintln(w)

	if s.Times == nil {
		fmt.Fprintln(w, "Prayer times unavailable")
	} else {
		for _, p := range s.Times.Ordered() {
			marker := ""
			if s.Upcoming != nil && s.Upcoming.Name == p.Name {
				marker = "  <- next"
			}
			fmt.Fprintf(w, "  %-8s %8s%s\n", p.Name, prayer.Format12h(p.Time), marker)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Today: %d/%d done (%.0f%%)\n", s.Progress.Completed, s.Progress.Due, s.Progress.Percent)
	for _, t := range s.Today {
		fmt.Fprintf(w, "  %s %s\n", checkbox(t.Completed), t.Title)
	}
}

func newExportICSCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-ics <id>",
		Short: "Write a task as an iCalendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.repo.Get(cmd.Context(), model.TaskID(args[0]))
			if err != nil {
				return err
			}
			now := a.clock.Now()
			ics, err := task.BuildTaskCalendarICS(t, calendar.Of(now), now)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = io.WriteString(a.stdout, ics)
				return err
			}
			return os.WriteFile(out, []byte(ics), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			h, err := serverapp.NewHandler(cmd.Context(), serverapp.Options{
				Config:   a.cfg,
				Store:    a.store,
				Provider: a.provider,
				Clock:    a.clock,
				Logger:   a.log,
			})
			if err != nil {
				return err
			}
			return serverapp.ListenAndServe(cmd.Context(), addr, h, a.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the task store into a .tar.gz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.clock.Now()
			if out == "" {
				out = filepath.Join("backups", "ramzan-"+now.UTC().Format("20060102T150405Z")+".tar.gz")
			}
			m, err := ops.Backup(cmd.Context(), a.store, ops.DefaultKeys(), out, now)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s (%d tasks)\n", out, m.Tasks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output archive path")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var verifyOnly bool
	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Load a backup archive into the task store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verifyOnly {
				m, err := ops.Verify(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "ok: %d tasks from %s\n", m.Tasks, m.CreatedAt.Format(time.RFC3339))
				return nil
			}
			m, err := ops.Restore(cmd.Context(), args[0], a.store)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "restored %d tasks\n", m.Tasks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verifyOnly, "verify", false, "check the archive without restoring")
	return cmd
}

func newDrillCmd(a *app) *cobra.Command {
	var workDir string
	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Back up, restore into scratch space, and compare",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ops.Drill(cmd.Context(), a.store, workDir, a.clock.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "backup:", r.Archive)
			for _, key := range r.Manifest.Keys {
				fmt.Fprintf(a.stdout, "digest %s: %s\n", key, r.Manifest.Digests[key])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&workDir, "work-dir", os.TempDir(), "where drill archives are written")
	return cmd
}
