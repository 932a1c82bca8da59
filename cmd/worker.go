/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/projtrack/apiserver/config"
	"github.com/projtrack/apiserver/internal/mq"
	"github.com/projtrack/apiserver/internal/notify"
	"github.com/projtrack/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the notification delivery worker",
	Long: `Consumes queued notifications and delivers them by email. Usage:

	projtrack worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		backend, err := server.OpenQueueBackend(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open queue backend: %w", err)
		}
		if backend == nil {
			return errors.New("worker requires a broker backend; set NOTIFY_BACKEND to rabbitmq or pubsub")
		}
		queue := mq.New(backend)
		defer queue.Close()

		var sender notify.Sender
		if os.Getenv("NOTIFY_DRY_RUN") == "1" {
			sender = notify.NewLogSender()
		} else {
			sender = notify.NewSMTPSender(cfg.SMTP)
		}

		worker := notify.NewWorker(queue, cfg.Notify.Channel, sender)
		return worker.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
