// Package cmd implements the mob command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/mob/internal/config"
	"github.com/zjrosen/mob/internal/log"
	"github.com/zjrosen/mob/internal/paths"
	"github.com/zjrosen/mob/internal/tracing"
)

var (
	cfgFile   string
	debugFlag bool
	logFile   string
	plainFlag bool
	dirFlag   string

	// Set by setup before any RunE.
	cfg             config.Config
	cfgUsed         string
	dataDir         string
	workDir         string
	shutdownTracing tracing.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "mob",
	Short: "Start and join mob programming sessions over git",
	Long: `mob moves a team between computers on a shared work-in-progress branch.

'mob start' fetches, inspects the local and remote wip branch, and then
creates, joins or rejoins the session before starting the typist timer.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./.mob.yaml, then ~/.config/mob/config.yaml)")
	pf.BoolVar(&debugFlag, "debug", false, "log at debug level")
	pf.StringVar(&logFile, "log-file", "", "log file (default <data_dir>/logs/mob.log)")
	pf.BoolVar(&plainFlag, "plain", false, "print plain output instead of the progress view")
	pf.StringVarP(&dirFlag, "dir", "C", "", "run as if mob was started in this directory")
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	rootCmd.Version = version
	return run()
}

func run() int {
	err := rootCmd.Execute()
	teardown()
	if err != nil {
		// An aborted run already printed its result.
		if !errors.Is(err, ErrRunAborted) {
			_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	workDir = dirFlag
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("reading working directory: %w", err)
		}
	}

	cfg, cfgUsed, err = loadConfig(workDir)
	if err != nil {
		return err
	}

	dataDir, err = paths.DataDir(cfg.DataDir)
	if err != nil {
		return err
	}

	path := logFile
	if path == "" {
		path = paths.LogFile(dataDir)
	}
	if err := log.Init(path); err != nil {
		return err
	}
	log.SetDebug(debugFlag)
	log.Debug(log.CatConfig, "configuration loaded", "file", cfgUsed, "data_dir", dataDir, "command", cmd.CommandPath())

	shutdownTracing, err = tracing.Setup(cmd.Context(), cfg.Tracing, dataDir, cmd.Root().Version)
	if err != nil {
		return err
	}
	return nil
}

// teardown runs after every command, including failed ones.
func teardown() {
	defer log.Close()
	if shutdownTracing == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		log.Warn(log.CatConfig, "flushing traces failed", "error", err)
	}
	shutdownTracing = nil
}

// loadConfig reads the first config file found and applies MOB_ environment
// overrides, e.g. MOB_MOB_WIP_BRANCH. It returns the file used, if any.
func loadConfig(dir string) (config.Config, string, error) {
	v := viper.New()
	v.SetEnvPrefix("MOB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, config.Defaults())

	file, err := findConfigFile(dir)
	if err != nil {
		return config.Config{}, "", err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, "", fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	c := config.Defaults()
	if err := v.Unmarshal(&c); err != nil {
		return config.Config{}, "", fmt.Errorf("parsing config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, "", fmt.Errorf("invalid config: %w", err)
	}
	return c, file, nil
}

func findConfigFile(dir string) (string, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return cfgFile, nil
	}
	candidates := []string{filepath.Join(dir, ".mob.yaml")}
	if user, err := paths.UserConfigFile(); err == nil {
		candidates = append(candidates, user)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// setDefaults registers every key so environment variables can override
// keys absent from the file.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("mob.wip_branch", d.Mob.WipBranch)
	v.SetDefault("mob.base_branch", d.Mob.BaseBranch)
	v.SetDefault("mob.remote_name", d.Mob.RemoteName)
	v.SetDefault("mob.timer_minutes", d.Mob.TimerMinutes)
	v.SetDefault("mob.timer_sound", d.Mob.TimerSound)
	v.SetDefault("mob.start_with_share", d.Mob.StartWithShare)
	v.SetDefault("git.timeout", d.Git.Timeout)
	v.SetDefault("git.allow_dirty", d.Git.AllowDirty)
	v.SetDefault("timer.notify", d.Timer.Notify)
	v.SetDefault("share.command", d.Share.Command)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.file", d.Tracing.File)
	v.SetDefault("tracing.insecure", d.Tracing.Insecure)
}
