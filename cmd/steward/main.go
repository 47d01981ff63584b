package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Steward, a church department finance tracker",
	Long:  "Steward tracks expenses and income per church department, with admin and department-manager roles, receipt uploads, a member roster for autocomplete, and summary reports.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/steward.yaml)")
}

func main() {
	// A local .env is optional; environment wins over file values either way.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
