// Package main provides the CLI entrypoint for tuicards.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuicards/internal/cardset"
	"github.com/verte-zerg/tuicards/internal/config"
	"github.com/verte-zerg/tuicards/internal/model"
	"github.com/verte-zerg/tuicards/internal/session"
	"github.com/verte-zerg/tuicards/internal/stats"
	"github.com/verte-zerg/tuicards/internal/statsui"
	"github.com/verte-zerg/tuicards/internal/store"
	"github.com/verte-zerg/tuicards/internal/tui"
)

var (
	reviewSet                string
	reviewNewPerDay          int
	reviewReviewsPerDay      int
	reviewGraduatingInterval int
	reviewEasyInterval       int

	resetSet string
	resetAll bool
	resetYes bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := model.DefaultSRSSettings()
	rootCmd := &cobra.Command{
		Use:           "tuicards",
		Short:         "TUI flashcards with spaced repetition",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runReviewCmd,
	}

	rootCmd.Flags().StringVar(&reviewSet, "set", "", "card set to review")
	rootCmd.Flags().IntVar(&reviewNewPerDay, "new-per-day", defaults.NewCardsPerDay, "max new cards per session")
	rootCmd.Flags().IntVar(&reviewReviewsPerDay, "reviews-per-day", defaults.ReviewsPerDay, "max due reviews per session")
	rootCmd.Flags().IntVar(&reviewGraduatingInterval, "graduating-interval", defaults.GraduatingInterval, "interval in days after the first success")
	rootCmd.Flags().IntVar(&reviewEasyInterval, "easy-interval", defaults.EasyInterval, "interval in days after a top-quality first success")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSetsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runReviewCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "set", &reviewSet, fileCfg.Review.Set)
	applyIntConfig(cmd, "new-per-day", &reviewNewPerDay, fileCfg.Review.NewPerDay)
	applyIntConfig(cmd, "reviews-per-day", &reviewReviewsPerDay, fileCfg.Review.ReviewsPerDay)
	applyIntConfig(cmd, "graduating-interval", &reviewGraduatingInterval, fileCfg.Review.GraduatingInterval)
	applyIntConfig(cmd, "easy-interval", &reviewEasyInterval, fileCfg.Review.EasyInterval)

	settings := model.DefaultSRSSettings()
	settings.NewCardsPerDay = reviewNewPerDay
	settings.ReviewsPerDay = reviewReviewsPerDay
	settings.GraduatingInterval = reviewGraduatingInterval
	settings.EasyInterval = reviewEasyInterval
	if err := settings.Validate(); err != nil {
		return err
	}

	setsDir := config.DefaultSetsDir()
	setID, err := resolveSet(reviewSet, setsDir)
	if err != nil {
		return err
	}
	set, err := cardset.LoadSet(cardset.SetPath(setsDir, setID))
	if err != nil {
		return setLoadError(setID, setsDir, err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	var uiModel *tui.Model
	sess, err := session.NewSession(st, session.Options{
		Settings: settings,
		OnError: func(err error) {
			if uiModel != nil {
				uiModel.PersistenceError(err)
			}
		},
	})
	if err != nil {
		return err
	}
	if _, err := sess.Start(context.Background(), set); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.Flush()

	uiModel = tui.NewModel(sess)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveSet picks the set to review: the requested one, or the only
// available one when the flag is unset.
func resolveSet(requested, setsDir string) (string, error) {
	sets, err := listSets(setsDir)
	if err != nil {
		return "", err
	}
	if requested != "" {
		return requested, nil
	}
	switch len(sets) {
	case 0:
		return "", fmt.Errorf("no card sets found in %s\nAdd a %s file with one 'front<TAB>back' card per line", setsDir, cardset.Extension)
	case 1:
		return sets[0], nil
	default:
		return "", fmt.Errorf("multiple card sets found, pick one with --set (available: %s)", strings.Join(sets, ", "))
	}
}

// listSets treats a missing sets directory as an empty one.
func listSets(setsDir string) ([]string, error) {
	sets, err := cardset.ListSets(setsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list card sets: %w", err)
	}
	return sets, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newSetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List available card sets",
		Args:  cobra.NoArgs,
		RunE:  runSetsCmd,
	}
}

func runSetsCmd(cmd *cobra.Command, _ []string) error {
	setsDir := config.DefaultSetsDir()
	sets, err := listSets(setsDir)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		logErrf("No card sets found in %s\n", setsDir)
		return fmt.Errorf("no card sets found")
	}
	for _, id := range sets {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show review stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	setIDs, err := listSets(config.DefaultSetsDir())
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		report, err := stats.BuildReport(context.Background(), st, setIDs, time.Now())
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}
		if err := stats.WriteReport(cmd.OutOrStdout(), report, 0); err != nil {
			return fmt.Errorf("failed to write stats: %w", err)
		}
		return nil
	}

	uiModel := statsui.NewModel(st, setIDs)
	program := tea.NewProgram(uiModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete review history",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().StringVar(&resetSet, "set", "", "card set to reset")
	cmd.Flags().BoolVar(&resetAll, "all", false, "reset all sets")
	cmd.Flags().BoolVar(&resetYes, "yes", false, "skip confirmation")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if resetAll == (resetSet != "") {
		return fmt.Errorf("specify exactly one of --set or --all")
	}

	target := resetSet
	if resetAll {
		target = "ALL sets"
	}
	if !resetYes {
		ok, err := confirm(cmd, fmt.Sprintf("Delete review history for %s? [y/N] ", target))
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Aborted.")
			return nil
		}
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	if resetAll {
		if err := st.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to reset history: %w", err)
		}
	} else if err := st.ResetSet(ctx, resetSet); err != nil {
		return fmt.Errorf("failed to reset %q: %w", resetSet, err)
	}
	logErrf("Review history for %s deleted.\n", target)
	return nil
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if _, err := fmt.Fprint(cmd.OutOrStdout(), prompt); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func setLoadError(setID, setsDir string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load card set: %v", err),
		fmt.Sprintf("expected card set at: %s", cardset.SetPath(setsDir, setID)),
		"List available sets with: tuicards sets",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func defaultConfigTemplate() string {
	defaults := model.DefaultSRSSettings()
	return fmt.Sprintf(`# tuicards configuration
# Uncomment a value to enable it. CLI flags override config values.

[review]
# set = "default"            # Card set to review
# new-per-day = %d           # Max new cards per session
# reviews-per-day = %d      # Max due reviews per session
# graduating-interval = %d   # Days until the next review after the first success
# easy-interval = %d         # Days until the next review after a top-quality first success
`,
		defaults.NewCardsPerDay,
		defaults.ReviewsPerDay,
		defaults.GraduatingInterval,
		defaults.EasyInterval,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
