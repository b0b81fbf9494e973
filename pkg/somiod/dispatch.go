package somiod

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Notification dispatch. Each content-instance create or delete raises one
// event; dispatch runs detached from the triggering request and delivers to
// every matching subscription concurrently, best effort, exactly one attempt.

// dispatchTimeout bounds a full dispatch round so a hung transport cannot pin
// a goroutine forever. Individual HTTP sends carry their own 5s timeout.
const dispatchTimeout = 2 * time.Minute

func (s *service) dispatchDetached(ci *ContentInstance, code EventCode) {
	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		s.dispatchEvent(ctx, ci, code)
	}()
}

func (s *service) dispatchEvent(ctx context.Context, ci *ContentInstance, code EventCode) {
	appName := ci.ApplicationResourceName
	containerName := ci.ContainerResourceName

	subs, err := s.repository.ListSubscriptionsForContainer(ctx, appName, containerName)
	if err != nil {
		slog.Error("notification dispatch: loading subscriptions failed",
			"application", appName, "container", containerName, "error", err)
		return
	}

	matched := make([]*Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Evt.Matches(code) && strings.TrimSpace(sub.Endpoint) != "" {
			matched = append(matched, sub)
		}
	}
	if len(matched) == 0 {
		return
	}

	resource := NotificationResource{
		ResourceName:            ci.ResourceName,
		CreationDatetime:        ci.CreationDatetime.Format(WireTimeFormat),
		ResType:                 string(ci.ResType),
		ContainerResourceName:   containerName,
		ApplicationResourceName: appName,
		ContentType:             ci.ContentType,
		Content:                 ci.Content,
		Path:                    ContentInstancePath(appName, containerName, ci.ResourceName),
	}
	topic := ContainerPath(appName, containerName)
	triggeredAt := time.Now().UTC().Format(WireTimeFormat)

	var wg sync.WaitGroup
	for _, sub := range matched {
		notification := &Notification{
			EventType: code.Name(),
			EventCode: code,
			Subscription: NotificationSubscription{
				ResourceName: sub.ResourceName,
				Evt:          sub.Evt,
				Endpoint:     sub.Endpoint,
			},
			Resource:    resource,
			TriggeredAt: triggeredAt,
		}

		// Audit copy first; a failed write is logged and never blocks the send.
		if err := s.notifications.Save(ctx, appName, notification); err != nil {
			slog.Warn("notification dispatch: audit write failed",
				"application", appName, "subscription", sub.ResourceName, "error", err)
		}

		payload, err := json.Marshal(notification)
		if err != nil {
			slog.Error("notification dispatch: marshal failed",
				"subscription", sub.ResourceName, "error", err)
			continue
		}

		sender := s.senderFor(sub.Endpoint)
		if sender == nil {
			slog.Warn("notification dispatch: no sender for endpoint scheme",
				"subscription", sub.ResourceName, "endpoint", sub.Endpoint)
			continue
		}

		wg.Add(1)
		go func(sub *Subscription, sender Sender, payload []byte) {
			defer wg.Done()
			if err := sender.Send(ctx, sub.Endpoint, topic, payload); err != nil {
				slog.Warn("notification delivery failed",
					"subscription", sub.ResourceName,
					"endpoint", sub.Endpoint,
					"event", code.Name(),
					"error", err)
			}
		}(sub, sender, payload)
	}
	wg.Wait()
}

func (s *service) senderFor(endpoint string) Sender {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil
	}
	return s.senders[strings.ToLower(u.Scheme)]
}
