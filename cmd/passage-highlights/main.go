package main

// @title           Passage Highlights API
// @version         1.0
// @description     Highlight and strikethrough annotations over reading passages, shared by every exam item that displays the same passage.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/passage-highlights/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token. Format: "Bearer {token}"

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	_ "github.com/custodia-labs/passage-highlights/docs"
)

var version = "dev"

var (
	recordBackend string

	rootCmd = &cobra.Command{
		Use:           "passage-highlights",
		Short:         "Annotation service for reading passages",
		Long:          "passage-highlights keeps highlight and strikethrough annotations over exam passages\nand persists them per passage across every item that displays it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recovery worker",
		RunE:  runServe, // Defined in serve.go
	}

	recordsCmd = &cobra.Command{
		Use:   "records",
		Short: "Inspect and purge durable annotation records",
	}
	recordsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the passages with a durable record",
		Args:  cobra.NoArgs,
		RunE:  runRecordsList, // Defined in records.go
	}
	recordsShowCmd = &cobra.Command{
		Use:   "show [document id]",
		Short: "Print the durable record of a passage",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecordsShow,
	}
	recordsPurgeCmd = &cobra.Command{
		Use:   "purge [document id]",
		Short: "Delete the record of a passage, or every record with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRecordsPurge,
	}
	purgeAll bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&recordBackend, "backend", getEnv("RECORD_BACKEND", "badger"),
		"durable record backend (badger, redis, postgres)")
	serveCmd.Flags().Int("port", getEnvInt("PORT", 8080), "HTTP listen port")
	recordsPurgeCmd.Flags().BoolVar(&purgeAll, "all", false, "delete every record")

	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsPurgeCmd)
	rootCmd.AddCommand(serveCmd, recordsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
