package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/snowball-lang/reky/pkg/buildinfo"
	"github.com/snowball-lang/reky/pkg/config"
	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/index"
	"github.com/snowball-lang/reky/pkg/install"
	"github.com/snowball-lang/reky/pkg/observability"
	"github.com/snowball-lang/reky/pkg/resolve"
	"github.com/snowball-lang/reky/pkg/vcs"
	"github.com/snowball-lang/reky/pkg/workspace"
)

// appName is the application name used for directories and display.
const appName = "reky"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	dryRun     bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               appName,
		Short:             "Reky resolves and installs Snowball package dependencies",
		Long:              `Reky reads the sn.reky manifests of Snowball projects, binds every required package to a single version, and installs the packages from the Snowball package index.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/reky/reky.toml)")
	root.PersistentFlags().BoolVar(&c.dryRun, "dry-run", false, "log git commands and installs instead of running them")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.indexCommand())
	root.AddCommand(c.hashCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the command
// context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Path != "" {
		c.Logger.Debug("Loaded config", "path", cfg.Path)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))

	hooks := hookLogger{logger: c.Logger}
	observability.SetResolverHooks(hooks)
	observability.SetIndexHooks(hooks)
	return nil
}

// =============================================================================
// Environment
// =============================================================================

// env is the wiring shared by commands that touch the index or installs.
type env struct {
	ws        *workspace.Workspace
	index     *index.Index
	packages  *install.Installer
	installer resolve.Installer
}

func (c *CLI) workspace(root string) (*workspace.Workspace, error) {
	home, err := c.cfg.HomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve snowball home: %w", err)
	}
	return workspace.New(root, home)
}

func (c *CLI) newEnv(ctx context.Context, root string) (*env, error) {
	logger := loggerFromContext(ctx)
	ws, err := c.workspace(root)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(logger)
	if err != nil {
		return nil, err
	}

	idx := index.New(ws.IndexDir(), c.cfg.IndexURL, runner, logger)
	inst := install.New(ws.Path(workspace.KindDeps), idx, runner, logger)

	e := &env{ws: ws, index: idx, packages: inst, installer: inst}
	if c.dryRun {
		e.installer = &dryRunInstaller{Installer: inst, logger: logger}
	}
	return e, nil
}

// newRunner returns the git runner, or a recorder under --dry-run.
func (c *CLI) newRunner(logger *log.Logger) (vcs.Runner, error) {
	if c.dryRun {
		return &vcs.Recorder{Logger: logger}, nil
	}
	path, err := c.cfg.GitPath()
	if err != nil {
		return nil, err
	}
	return vcs.NewGit(path, logger), nil
}

// dryRunInstaller reports installs without touching the deps directory.
type dryRunInstaller struct {
	*install.Installer
	logger *log.Logger
}

func (d *dryRunInstaller) Install(_ context.Context, name, version string) error {
	d.logger.Info("Would install", "package", name+"@"+version, "dir", d.Dir(name))
	return nil
}

// =============================================================================
// Resolution
// =============================================================================

// runResolve resolves projects inside the workspace at root. The cache is
// saved unless --dry-run is set.
func (c *CLI) runResolve(ctx context.Context, root string, projects []string) (*resolve.Result, error) {
	logger := loggerFromContext(ctx)
	e, err := c.newEnv(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		projects = []string{e.ws.Root}
	}

	opts := resolve.Options{
		CachePath:    e.ws.CachePath(),
		ManifestFile: c.cfg.Manifest,
		Logger:       logger,
	}

	prog := newProgress(logger)
	var res *resolve.Result
	if c.dryRun {
		res, err = resolve.NewSession(e.installer, e.index, opts).Resolve(ctx, projects)
	} else {
		res, err = resolve.Run(ctx, e.installer, e.index, opts, projects)
	}
	if err != nil {
		var conflict *rekyerrors.ConflictError
		if errors.As(err, &conflict) {
			printWarning("%s is required at %s and %s; pin one version in every manifest",
				conflict.Name, conflict.Bound, conflict.Requested)
		}
		return nil, err
	}

	prog.done(fmt.Sprintf("Resolved %d packages in %d passes", res.Cache.Len(), res.Passes))
	return res, nil
}
