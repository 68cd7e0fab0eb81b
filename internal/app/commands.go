package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// reloadTimeout bounds a user requested reload from the object store.
	reloadTimeout = 30 * time.Second
)

// Service is the data source behind the dashboard.
type Service interface {
	Dataset() *models.Dataset
	LoadedAt() time.Time
	Origin() string
	Reload(ctx context.Context) error
	Runs(ctx context.Context) ([]models.Run, error)
	Subscribe() (chan services.ServiceEvent, tea.Cmd)
}

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData returns a command that loads the dataset and the run history.
func loadInitialData(svc Service) tea.Cmd {
	return tea.Batch(
		loadDatasetCmd(svc),
		loadRunsCmd(svc),
	)
}

// loadDatasetCmd reads the dataset currently held by the service.
func loadDatasetCmd(svc Service) tea.Cmd {
	return func() tea.Msg {
		return DatasetLoadedMsg{
			Dataset:  svc.Dataset(),
			LoadedAt: svc.LoadedAt(),
			Origin:   svc.Origin(),
		}
	}
}

// loadRunsCmd reads the recent run history.
func loadRunsCmd(svc Service) tea.Cmd {
	return func() tea.Msg {
		runs, err := svc.Runs(context.Background())
		return RunsLoadedMsg{Runs: runs, Error: err}
	}
}

// reloadCmd asks the service to read the dataset again. The new dataset
// arrives through the subscription.
func reloadCmd(svc Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		return ReloadResultMsg{Error: svc.Reload(ctx)}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(svc Service) tea.Cmd {
	ch, _ := svc.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// Commands exposes the command constructors to the tabs.
type Commands struct {
	service Service
}

// NewCommands creates a new Commands instance.
func NewCommands(svc Service) *Commands {
	return &Commands{service: svc}
}

// Reload returns a command that reloads the dataset, or nil without a service.
func (c *Commands) Reload() tea.Cmd {
	if c.service == nil {
		return nil
	}
	return tea.Batch(
		func() tea.Msg { return StartLoadingMsg{Resource: "dataset"} },
		reloadCmd(c.service),
	)
}

// LoadRuns returns a command that loads the run history, or nil without a service.
func (c *Commands) LoadRuns() tea.Cmd {
	if c.service == nil {
		return nil
	}
	return loadRunsCmd(c.service)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}
