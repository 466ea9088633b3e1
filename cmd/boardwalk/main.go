package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"

	"github.com/evanschultz/boardwalk/internal/adapters/restapi"
	"github.com/evanschultz/boardwalk/internal/app"
	"github.com/evanschultz/boardwalk/internal/config"
	"github.com/evanschultz/boardwalk/internal/platform"
	"github.com/evanschultz/boardwalk/internal/tui"
)

// version is overridden at build time.
var version = "dev"

// program is the slice of *tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program. Tests swap it out.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes args through fang.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	root := newRootCommand(newRootOptions())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithoutManpage(),
		fang.WithoutCompletions(),
	)
}

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	configPath string
	apiURL     string
	token      string
	appName    string
	devMode    bool
	boardID    string
	now        func() time.Time
}

// newRootOptions seeds flag defaults from the environment.
func newRootOptions() *rootOptions {
	o := &rootOptions{appName: "boardwalk", devMode: version == "dev", now: time.Now}
	if envApp := strings.TrimSpace(os.Getenv("BOARDWALK_APP_NAME")); envApp != "" {
		o.appName = envApp
	}
	if envDev, ok := parseBoolEnv("BOARDWALK_DEV_MODE"); ok {
		o.devMode = envDev
	}
	return o
}

func newRootCommand(o *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "boardwalk",
		Short: "Kanban boards in the terminal",
		Long:  "boardwalk opens a Kanban board TUI against a board backend. Subcommands script the same operations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runTUI(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "path to config TOML")
	pf.StringVar(&o.apiURL, "api", "", "backend base URL (overrides api.base_url)")
	pf.StringVar(&o.token, "token", "", "bearer token (overrides api.token)")
	pf.StringVar(&o.appName, "app", o.appName, "application name for config/data path resolution")
	pf.BoolVar(&o.devMode, "dev", o.devMode, "use dev mode paths (<app>-dev)")
	root.Flags().StringVar(&o.boardID, "board", "", "open this board on launch")

	root.AddCommand(
		newBoardsCommand(o),
		newBoardCommand(o),
		newListsCommand(o),
		newCardsCommand(o),
		newInviteCommand(o),
		newRecommendationsCommand(o),
		newServeCommand(o),
		newPathsCommand(o),
		newLoginCommand(o),
	)
	return root
}

// session is the resolved runtime for one command: config, logger, and service.
type session struct {
	appName    string
	devMode    bool
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	svc        *app.Service
	stderr     io.Writer
}

// resolvePaths resolves platform paths and the effective config path.
func (o *rootOptions) resolvePaths() (platform.Paths, string, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
	if err != nil {
		return platform.Paths{}, "", err
	}
	configPath := strings.TrimSpace(o.configPath)
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv("BOARDWALK_CONFIG"))
	}
	if configPath == "" {
		configPath = paths.ConfigPath
	}
	return paths, configPath, nil
}

// loadConfig loads config from disk and applies flag and env overrides.
func (o *rootOptions) loadConfig(configPath string, paths platform.Paths) (config.Config, error) {
	cfg, err := config.Load(configPath, config.Default(paths.LogDir))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if v := firstNonEmpty(o.apiURL, os.Getenv("BOARDWALK_API_URL")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := firstNonEmpty(o.token, os.Getenv("BOARDWALK_TOKEN")); v != "" {
		cfg.API.Token = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// open resolves one session. quiet mutes the console sink from the start,
// which keeps the terminal clean for the TUI.
func (o *rootOptions) open(stderr io.Writer, command string, quiet bool) (*session, error) {
	paths, configPath, err := o.resolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := o.loadConfig(configPath, paths)
	if err != nil {
		return nil, err
	}

	logger, err := newRuntimeLogger(stderr, o.appName, o.devMode, cfg.Logging, o.now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.SetConsoleEnabled(!quiet)
	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "log_dir", paths.LogDir)
	logger.Info("configuration loaded", "config_path", configPath, "api", cfg.API.BaseURL, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	timeout, err := cfg.API.TimeoutDuration()
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	client, err := restapi.NewClient(restapi.Config{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("configure backend client: %w", err)
	}
	return &session{
		appName:    o.appName,
		devMode:    o.devMode,
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		svc:        app.NewService(client, logger),
		stderr:     stderr,
	}, nil
}

// close releases the dev log sink. A muted console produces no warning.
func (s *session) close() {
	if s == nil {
		return
	}
	if err := s.logger.Close(); err != nil && s.logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(s.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// withSession runs fn inside one logged command flow.
func (o *rootOptions) withSession(cmd *cobra.Command, command string, fn func(context.Context, *session) error) error {
	s, err := o.open(cmd.ErrOrStderr(), command, false)
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info("command flow start", "command", command)
	if err := fn(cmd.Context(), s); err != nil {
		s.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	s.logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI starts the interactive board program.
func (o *rootOptions) runTUI(cmd *cobra.Command) error {
	s, err := o.open(cmd.ErrOrStderr(), "tui", true)
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info("command flow start", "command", "tui")
	opts, err := tuiOptions(s.cfg, o.boardID)
	if err != nil {
		return err
	}
	m := tui.NewModel(s.svc, opts...)
	s.logger.Info("starting tui program loop", "board", o.boardID)
	if _, err := programFactory(m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	s.logger.Info("command flow complete", "command", "tui")
	return nil
}

// tuiOptions maps persisted config values into model options.
func tuiOptions(cfg config.Config, boardID string) ([]tui.Option, error) {
	dueSoon, err := cfg.UI.DueSoonDuration()
	if err != nil {
		return nil, err
	}
	opts := []tui.Option{
		tui.WithCardFieldConfig(tui.CardFieldConfig{
			ShowPriority:    cfg.CardFields.ShowPriority,
			ShowStatus:      cfg.CardFields.ShowStatus,
			ShowDueDate:     cfg.CardFields.ShowDueDate,
			ShowDescription: cfg.CardFields.ShowDescription,
		}),
		tui.WithKeyConfig(tui.KeyConfig{
			Grab:            cfg.Keys.Grab,
			Recommendations: cfg.Keys.Recommendations,
			Invite:          cfg.Keys.Invite,
			AddList:         cfg.Keys.AddList,
		}),
		tui.WithConfirmQuit(cfg.UI.ConfirmQuit),
		tui.WithDueSoonWindow(dueSoon),
		tui.WithGreeting(tokenDisplayName(cfg.API.Token)),
	}
	if strings.TrimSpace(boardID) != "" {
		opts = append(opts, tui.WithInitialBoard(boardID))
	}
	return opts, nil
}

// tokenDisplayName reads the name, username, or email claim from a bearer
// token without verifying it. The backend owns verification.
func tokenDisplayName(token string) string {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range []string{"name", "username", "email"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseBoolEnv reads a boolean env var. ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
