/*
Package events provides pub/sub distribution of label lifecycle events.

The broker fans out label applications, removals, and feed connection
changes to any number of subscribers. Delivery is best-effort: each
subscriber gets a buffered channel, and a subscriber that falls behind
misses events rather than stalling the broker. The ops server's
websocket stream is the primary consumer.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	ev := events.New(events.EventLabelApplied)
	ev.Subject = subject
	broker.Publish(ev)
*/
package events
