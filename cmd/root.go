package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
)

var (
	verbose   bool
	serverURL string
	configDir string
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "Manage your tasks and chat from the terminal",
	Long: `A terminal client for the todo backend.

taskdeck talks to the same REST API as the web dashboard: sign in once and
your token is stored locally, then create, update and complete tasks, export
them, or talk to the AI assistant.

Quick Start:
  taskdeck login you@example.com     # Sign in and store a token
  taskdeck list                      # Show your tasks
  taskdeck add Buy milk              # Create a task
  taskdeck done <task-id>            # Mark a task completed
  taskdeck chat new "Plan my week"   # Start an AI conversation`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Custom config directory")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// appEnv bundles the wired-up client stack for a command invocation.
type appEnv struct {
	cfg     *internal.Config
	tokens  internal.TokenStore
	session *internal.Session
	guard   *internal.Guard
	tasks   *internal.TaskStore
	chat    *internal.ConversationStore
	cache   *internal.CacheManager
}

// newEnv builds the environment from config, flags and the stored token.
func newEnv() (*appEnv, error) {
	cfg, err := internal.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}

	tokens := internal.NewFileTokenStore(cfg.Dir)

	taskClient := internal.NewClient(cfg.ServerURL, tokens, cfg.RequestTimeoutDuration())
	chatClient := internal.NewClient(cfg.ServerURL, tokens, cfg.ChatTimeoutDuration())

	session := internal.NewSession(taskClient, tokens)
	taskClient.OnAuthLost(session.Invalidate)
	chatClient.OnAuthLost(session.Invalidate)

	return &appEnv{
		cfg:     cfg,
		tokens:  tokens,
		session: session,
		guard:   internal.NewGuard(session),
		tasks:   internal.NewTaskStore(taskClient),
		chat:    internal.NewConversationStore(chatClient),
		cache:   internal.NewCacheManager(internal.DefaultCacheDir()),
	}, nil
}

// requireAuth gates protected commands on the guard's decision.
func requireAuth(ctx context.Context, env *appEnv) error {
	state, err := env.guard.Resolve(ctx)
	if err != nil {
		return err
	}
	if state != internal.GuardAllowed {
		return fmt.Errorf("not logged in (run: taskdeck login <email>)")
	}
	return nil
}
