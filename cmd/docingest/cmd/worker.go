package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rezonia/docingest/internal/taskqueue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume document-processing tasks from the task queue",
	Long: `Start a worker that subscribes to the configured NATS subject and
runs each delivered task through the Document Service's Process operation,
redelivering on a transient failure up to the configured retry count.

Requires task_queue.url (or TASK_QUEUE_URL) to be set; without a broker
configured there is nothing to consume (docingest serve processes documents
inline with InlineQueue instead).`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := buildApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.natsQueue == nil {
		return fmt.Errorf("no task queue configured (set TASK_QUEUE_URL); nothing for the worker to consume")
	}

	sub, err := a.natsQueue.Subscribe(func(task taskqueue.Task) error {
		return a.service.Process(context.Background(), task)
	})
	if err != nil {
		return fmt.Errorf("subscribing to task queue: %w", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	a.log.Info().Str("subject", a.cfg.TaskQueue.Subject).Msg("worker consuming document-processing tasks")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nshutting down worker...")
	return nil
}
