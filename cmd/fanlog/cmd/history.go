package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipp01105/fanlog/destination/filedest"
	"github.com/philipp01105/fanlog/logger"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the tail of the configured log file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printError("load config", err)
			return err
		}
		if cfg.File == nil {
			return errors.New("no [file] destination configured")
		}
		history, err := filedest.ReadHistory(cfg.File.Path, historyLimit)
		if err != nil {
			printError("read history", err)
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), history)
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the configured log file and its backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printError("load config", err)
			return err
		}
		if cfg.File == nil {
			return errors.New("no [file] destination configured")
		}
		for _, name := range filedest.ListFiles(cfg.File.Path, cfg.File.MaxFiles) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", logger.DefaultHistoryLimit, "maximum number of bytes to print")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(filesCmd)
}
