package somiod

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Notification is the record dispatched to subscribers and persisted as an
// audit artifact. The same structure travels as the JSON body of both HTTP
// and MQTT deliveries.
type Notification struct {
	EventType    string                   `json:"eventType" validate:"required,oneof=creation deletion"`
	EventCode    EventCode                `json:"eventCode" validate:"required,oneof=1 2"`
	Subscription NotificationSubscription `json:"subscription" validate:"required"`
	Resource     NotificationResource     `json:"resource" validate:"required"`
	TriggeredAt  string                   `json:"triggeredAt" validate:"required"`
}

// NotificationSubscription identifies the subscription a notification was
// matched against.
type NotificationSubscription struct {
	ResourceName string    `json:"resourceName" validate:"required"`
	Evt          EventCode `json:"evt" validate:"required,oneof=1 2 3"`
	Endpoint     string    `json:"endpoint" validate:"required,uri"`
}

// NotificationResource is the snapshot of the content instance the event is
// about. For deletions it reflects the pre-deletion state.
type NotificationResource struct {
	ResourceName            string `json:"resourceName" validate:"required"`
	CreationDatetime        string `json:"creationDatetime" validate:"required"`
	ResType                 string `json:"resType" validate:"required"`
	ContainerResourceName   string `json:"containerResourceName" validate:"required"`
	ApplicationResourceName string `json:"applicationResourceName" validate:"required"`
	ContentType             string `json:"contentType" validate:"required"`
	Content                 string `json:"content" validate:"required"`
	Path                    string `json:"path" validate:"required,startswith=/"`
}

var notificationValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the record against the notification schema. Stores call it
// before every write.
func (n *Notification) Validate() error {
	if err := notificationValidate.Struct(n); err != nil {
		return fmt.Errorf("notification schema: %w", err)
	}
	return nil
}
