package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/somiod/pkg/somiod"
)

func validNotification() *somiod.Notification {
	return &somiod.Notification{
		EventType: "deletion",
		EventCode: somiod.EventDeletion,
		Subscription: somiod.NotificationSubscription{
			ResourceName: "watcher",
			Evt:          somiod.EventDeletion,
			Endpoint:     "mqtt://broker.example:1883",
		},
		Resource: somiod.NotificationResource{
			ResourceName:            "state-1",
			CreationDatetime:        "2026-03-01T12:00:00",
			ResType:                 "content-instance",
			ContainerResourceName:   "kitchen",
			ApplicationResourceName: "lighting",
			ContentType:             "text/plain",
			Content:                 "off",
			Path:                    "/lighting/kitchen/state-1",
		},
		TriggeredAt: "2026-03-01T12:00:01",
	}
}

func TestSaveAndRecords(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "lighting", validNotification()))
	require.NoError(t, store.Save(ctx, "lighting", validNotification()))
	require.NoError(t, store.Save(ctx, "hvac", validNotification()))

	assert.Len(t, store.Records("lighting"), 2)
	assert.Len(t, store.Records("hvac"), 1)
	assert.Empty(t, store.Records("metering"))
}

func TestSaveStoresCopy(t *testing.T) {
	store := New()
	n := validNotification()

	require.NoError(t, store.Save(context.Background(), "lighting", n))
	n.EventType = "creation"

	records := store.Records("lighting")
	require.Len(t, records, 1)
	assert.Equal(t, "deletion", records[0].EventType)
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	store := New()

	n := validNotification()
	n.Resource.Path = "no-leading-slash"

	err := store.Save(context.Background(), "lighting", n)
	assert.Error(t, err)
	assert.Empty(t, store.Records("lighting"))
}
