package app

import (
	"time"

	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/services"
)

// TickMsg is sent periodically to expire notifications and refresh ages.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// DatasetLoadedMsg carries a freshly loaded dataset to the tabs.
type DatasetLoadedMsg struct {
	LoadedAt time.Time
	Dataset  *models.Dataset
	Origin   string
}

// RunsLoadedMsg carries the run history.
type RunsLoadedMsg struct {
	Error error
	Runs  []models.Run
}

// ReloadResultMsg is the outcome of a user requested reload.
type ReloadResultMsg struct {
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps an event from the dashboard service.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
