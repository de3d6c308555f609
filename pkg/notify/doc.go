// Package notify polls the notifications endpoint on a fixed interval
// and hands newly seen notifications to a callback. There is no push
// channel in the ServiceBay API; polling is the delivery mechanism.
//
//	poller := notify.NewPoller(notify.PollerConfig{
//	    Fetch:   client.ListNotifications,
//	    Handler: func(fresh []api.Notification) { ... },
//	})
//	poller.Start(ctx)
//	defer poller.Stop()
//
// Start fetches immediately, then ticks. Stop is idempotent and safe to
// call from any goroutine.
package notify
