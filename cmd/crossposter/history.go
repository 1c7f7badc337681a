package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"crossposter/pkg/config"
	"crossposter/pkg/logger"
	"crossposter/pkg/store"
	"crossposter/pkg/ui"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show posts already republished",
	Long: `Print the posted list kept by the store, most recent last.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last N entries (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile, globalFlags())
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store, logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	posts, err := st.Load()
	if err != nil {
		return err
	}

	start := 0
	if historyLimit > 0 && historyLimit < len(posts) {
		start = len(posts) - historyLimit
	}
	for i, post := range posts[start:] {
		label := fmt.Sprintf("%4d %-5s", start+i+1, post.Kind())
		if post.HasMedia() {
			ui.PrintInfo(label, post.CaptionText+"  "+ui.Dim(post.Media()))
		} else {
			ui.PrintInfo(label, post.CaptionText)
		}
	}

	ui.PrintInfo("Total", strconv.Itoa(len(posts)))
	return nil
}
