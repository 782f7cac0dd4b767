package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/eventbus"
)

// Cmd is the events command group
var Cmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect published domain events",
}

var tailRoutingKey string

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print events from the broker as JSON lines until interrupted",
	Long: `Print events published to the broker as JSON lines. The command binds
a temporary queue, so it only sees events published while it runs.

Examples:
  cyclist events tail
  cyclist events tail --key reminders.notification.sent`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RabbitMQURL == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Event tailing requires RabbitMQ. Set RABBITMQ_URL.")
			return nil
		}

		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    app.RabbitMQURL,
			Logger: app.Logger,
		}, nil)
		if err != nil {
			return err
		}
		defer consumer.Close()

		consumer.RegisterConsumer(NewPrinter(cmd.OutOrStdout(), tailRoutingKey))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	tailCmd.Flags().StringVarP(&tailRoutingKey, "key", "k", eventbus.AllEvents, "routing key to follow")
	Cmd.AddCommand(tailCmd)
}

// Printer writes every event it receives as one JSON line.
type Printer struct {
	mu         sync.Mutex
	enc        *json.Encoder
	routingKey string
}

// NewPrinter creates a printer for routingKey; eventbus.AllEvents follows
// every event.
func NewPrinter(w io.Writer, routingKey string) *Printer {
	if routingKey == "" {
		routingKey = eventbus.AllEvents
	}
	return &Printer{enc: json.NewEncoder(w), routingKey: routingKey}
}

// EventTypes implements eventbus.EventConsumer.
func (p *Printer) EventTypes() []string {
	return []string{p.routingKey}
}

// Handle implements eventbus.EventConsumer.
func (p *Printer) Handle(_ context.Context, event *sharedDomain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(event)
}
