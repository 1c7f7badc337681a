package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"crossposter/pkg/auth"
	"crossposter/pkg/bridge"
	"crossposter/pkg/collector"
	"crossposter/pkg/config"
	errs "crossposter/pkg/errors"
	"crossposter/pkg/logger"
	"crossposter/pkg/mirror"
	"crossposter/pkg/publisher"
	"crossposter/pkg/ratelimit"
	"crossposter/pkg/store"
	"crossposter/pkg/ui"
	"crossposter/pkg/ui/tui"
)

var (
	syncMirror         string
	syncStore          string
	syncStoreBackend   string
	syncMaxPages       int
	syncPostsPerMinute int
	syncDryRun         bool
	syncTUI            bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [account]",
	Short: "Republish new posts from the mirror to Bluesky",
	Long: `Fetch every listing page of the account from the mirror until an empty
page is reached, then publish each post not yet recorded, oldest first.

A failed post stops the run and is not recorded, so the next run
attempts it again.`,
	Example: `  # Account and mirror from the environment (TWITTER_USERNAME, NITTER_INSTANCE)
  crossposter sync

  # Explicit account and mirror
  crossposter sync someone --mirror https://nitter.example.com

  # See what would be posted without touching Bluesky
  crossposter sync someone --dry-run

  # Live dashboard
  crossposter sync someone --tui`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncMirror, "mirror", "", "mirror base URL")
	syncCmd.Flags().StringVar(&syncStore, "store", "", "path of the posted-list store")
	syncCmd.Flags().StringVar(&syncStoreBackend, "store-backend", "", "store backend (json, sqlite)")
	syncCmd.Flags().IntVar(&syncMaxPages, "max-pages", 0, "stop after this many pages (0 = unbounded)")
	syncCmd.Flags().IntVar(&syncPostsPerMinute, "posts-per-minute", 0, "pace publishing (0 = unpaced)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "log posts instead of publishing them")
	syncCmd.Flags().BoolVar(&syncTUI, "tui", false, "show a live dashboard while publishing")
}

func runSync(cmd *cobra.Command, args []string) error {
	flags := globalFlags()
	if len(args) > 0 {
		flags["account"] = mirror.NormalizeAccount(args[0])
	}
	if syncMirror != "" {
		flags["mirror"] = syncMirror
	}
	if syncStore != "" {
		flags["store"] = syncStore
	}
	if syncStoreBackend != "" {
		flags["store-backend"] = syncStoreBackend
	}
	if cmd.Flags().Changed("max-pages") {
		flags["max-pages"] = syncMaxPages
	}
	if cmd.Flags().Changed("posts-per-minute") {
		flags["posts-per-minute"] = syncPostsPerMinute
	}
	if cmd.Flags().Changed("dry-run") {
		flags["dry-run"] = syncDryRun
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	if syncTUI && logLevel == "" {
		// keep the dashboard readable
		cfg.Logging.Level = "error"
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	if err := checkAccount(cfg); err != nil {
		return err
	}

	if err := resolveCredentials(cfg); err != nil {
		return err
	}

	ui.PrintInfo("Account", cfg.Source.Account)
	ui.PrintInfo("Mirror", cfg.Mirror.BaseURL)
	ui.PrintInfo("Store", fmt.Sprintf("%s (%s)", cfg.Store.Path, cfg.Store.Backend))
	if cfg.Publish.DryRun {
		ui.PrintWarning("Dry run: nothing will be published")
	} else {
		ui.PrintInfo("Destination", cfg.Bluesky.Handle)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mirrorClient := mirror.NewClient(cfg.Mirror, log)

	pub, err := newPublisher(ctx, cfg, mirrorClient, log)
	if err != nil {
		printHint(err)
		return err
	}

	st, err := store.Open(cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.Close()

	limiter, err := ratelimit.New(cfg.Publish.Pacing, cfg.Publish.PostsPerMinute)
	if err != nil {
		return err
	}

	source := collector.New(mirrorClient, cfg.Source.Account,
		collector.WithMaxPages(cfg.Collector.MaxPages),
		collector.WithLogger(log),
	)

	lines := ui.NewPublishProgress()
	var progress bridge.Progress = lines
	var dashboard *tui.TUI
	if syncTUI {
		dashboard = tui.New(cfg.Source.Account, stop, tea.WithAltScreen())
		progress = dashboard
		dashboard.Open()
	}

	b := bridge.New(source, pub, st,
		bridge.WithLimiter(limiter),
		bridge.WithProgress(progress),
		bridge.WithLogger(log),
	)

	summary, err := b.Run(ctx)
	if dashboard != nil {
		if tuiErr := dashboard.Close(summary.Discovered, summary.Skipped, err); tuiErr != nil {
			log.WithError(tuiErr).Warn("dashboard exited with an error")
		}
	}
	printSummary(summary, lines.Rate())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Interrupted")
		}
		printHint(err)
		return err
	}

	ui.PrintSuccess("Sync complete")
	return nil
}

// checkAccount normalizes the source account and rejects malformed handles
func checkAccount(cfg *config.Config) error {
	cfg.Source.Account = mirror.NormalizeAccount(cfg.Source.Account)
	if !mirror.IsValidAccount(cfg.Source.Account) {
		return fmt.Errorf("invalid account %q: use letters, digits and underscores, at most 15 characters", cfg.Source.Account)
	}
	return nil
}

// errorHint suggests a next step for failures the user can act on
func errorHint(err error) string {
	switch {
	case errs.Is(err, errs.ErrorTypeAuth):
		return "Bluesky rejected the session: check the app password or run 'crossposter auth login'"
	case errs.Is(err, errs.ErrorTypeNotFound):
		return "The mirror has no such account, or the mirror URL is wrong"
	case errs.Is(err, errs.ErrorTypeParsing):
		return "The mirror page could not be read; nothing after this point was published"
	}
	return ""
}

func printHint(err error) {
	if hint := errorHint(err); hint != "" {
		ui.PrintWarning(hint)
	}
}

// resolveCredentials fills missing Bluesky credentials from the credential manager
func resolveCredentials(cfg *config.Config) error {
	if cfg.Publish.DryRun || (cfg.Bluesky.Handle != "" && cfg.Bluesky.Password != "") {
		return cfg.ValidateCredentials()
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if cfg.Bluesky.Handle != "" {
		account, err = manager.Retrieve(cfg.Bluesky.Handle)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return fmt.Errorf("no Bluesky credentials: set BLUESKY_HANDLE/BLUESKY_PASSWORD or run 'crossposter auth login': %w", err)
	}

	cfg.Bluesky.Handle = account.Handle
	cfg.Bluesky.Password = account.AppPassword
	if account.Host != "" {
		cfg.Bluesky.Host = account.Host
	}

	return cfg.ValidateCredentials()
}

func newPublisher(ctx context.Context, cfg *config.Config, media publisher.MediaFetcher, log logger.Logger) (publisher.Publisher, error) {
	if cfg.Publish.DryRun {
		return publisher.NewDryRun(log), nil
	}

	bsky := publisher.NewBluesky(cfg.Bluesky, cfg.Mirror.Timeout, media, log)
	if err := bsky.Login(ctx, cfg.Bluesky.Password); err != nil {
		return nil, err
	}
	return bsky, nil
}

func printSummary(summary *bridge.Summary, rate float64) {
	if summary == nil {
		return
	}
	ui.PrintLine("")
	ui.PrintHighlight("Run " + summary.RunID)
	ui.PrintInfo("Discovered", strconv.Itoa(summary.Discovered))
	ui.PrintInfo("Published", strconv.Itoa(summary.Published))
	ui.PrintInfo("Skipped", strconv.Itoa(summary.Skipped))
	ui.PrintInfo("Duration", summary.Duration.Round(time.Millisecond).String())
	if summary.Published > 0 {
		ui.PrintInfo("Rate", fmt.Sprintf("%.1f posts/min", rate))
	}
}
