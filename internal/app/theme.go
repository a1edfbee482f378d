package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mcpstats/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark]",
	Short: "Show or set the color theme",
	Long: `Show the active color theme, or save a new preference.

Without a saved preference the theme follows the terminal background
reported in COLORFGBG, defaulting to light.`,
	Example: `  # Show the active theme
  mcpstats theme

  # Use bright colors on a dark terminal
  mcpstats theme dark`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(theme.Light), string(theme.Dark)},
	RunE:      runTheme,
}

func init() {
	RootCmd.AddCommand(themeCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var want theme.Theme
	if len(args) == 1 {
		t, err := theme.Parse(args[0])
		if err != nil {
			return err
		}
		want = t
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	if want != "" {
		if err := theme.Set(st, want); err != nil {
			return err
		}
		fmt.Fprintf(out, "Theme set to %s\n", want)
		return nil
	}

	if t, ok := theme.Stored(st); ok {
		fmt.Fprintf(out, "%s\n", t)
		return nil
	}
	fmt.Fprintf(out, "%s (system)\n", theme.System(os.Getenv))
	return nil
}
