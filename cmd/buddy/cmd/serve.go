package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"buddy/src/daemon"
)

// serveCmd runs the HTTP API in the foreground
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the buddy HTTP API in the foreground.

Endpoints:
  GET  /                      status banner
  GET  /health                database health check
  POST /init                  initialize or reset a buddy
  POST /chat                  send a message and get a reply
  GET  /buddies/:id/history   recent conversation turns
  GET  /personas              available persona templates

SIGHUP reloads persona templates, SIGINT/SIGTERM shut down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isRunning, pid := daemon.IsRunning(); isRunning {
			return fmt.Errorf("server is already running (PID: %d)", pid)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		srv := daemon.NewServer(a.service, a.settings.Server, a.logger)
		return daemon.Run(srv, a.settings.Server.Addr, a.catalog.Reload, a.logger)
	},
}

// serveStopCmd stops a running server
var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		isRunning, pid := daemon.IsRunning()
		if !isRunning {
			fmt.Println("Server is not running")
			return nil
		}

		fmt.Printf("Stopping server (PID: %d)...\n", pid)
		return daemon.Stop(pid)
	},
}

// serveStatusCmd shows server status
var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Run: func(cmd *cobra.Command, args []string) {
		if isRunning, pid := daemon.IsRunning(); isRunning {
			fmt.Printf("Server is running (PID: %d)\n", pid)
		} else {
			fmt.Println("Server is not running")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
