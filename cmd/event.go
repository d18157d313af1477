package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the portal's lifecycle events",
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the event types the portal publishes",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, eventType := range []string{
			events.EventTypeAbsenceStatusChanged,
			events.EventTypeAbsenceSubmitted,
			events.EventTypeTerminationRequested,
			events.EventTypeEmployeeCreated,
		} {
			fmt.Fprintln(cmd.OutOrStdout(), eventType)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample event through the audit log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event, err := sampleEvent(args[0])
		if err != nil {
			return err
		}

		lg := logger.LoggerWrapper()
		bus := events.NewEventBus(lg)
		events.SubscribeAuditLog(bus, lg)

		if err := bus.PublishSync(context.Background(), event); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %s %s\n", event.EventType(), event.EventID())
		return nil
	},
}

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeAbsenceStatusChanged:
		return events.NewAbsenceStatusChangedEvent(1, 1, "APROBADA"), nil
	case events.EventTypeAbsenceSubmitted:
		return events.NewAbsenceSubmittedEvent(1, "VACACIONES", "2030-01-01", "2030-01-05"), nil
	case events.EventTypeTerminationRequested:
		return events.NewTerminationRequestedEvent(1, 1), nil
	case events.EventTypeEmployeeCreated:
		return events.NewEmployeeCreatedEvent(1, "11.111.111-1", "Analista"), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func init() {
	eventCmd.AddCommand(listEventsCmd)
	eventCmd.AddCommand(publishEventCmd)
}
