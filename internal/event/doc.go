/*
Package event provides a type-safe, pub/sub event system for the tutoring server.

The event system enables decoupled communication between the session service
and the delivery surfaces (SSE, WebSocket) by allowing publishers to emit
events and subscribers to react to them without direct dependencies.

# Architecture

The package is built on top of watermill's gochannel for infrastructure while
maintaining direct-call semantics to preserve type information. It provides
both synchronous and asynchronous event publishing patterns.

# Event Types

Session Events:
  - session.created: New learning session created
  - session.deleted: Session removed (explicitly or by idle eviction)
  - session.completed: Learning journey completed

Learning Events:
  - stage.advanced: Session moved to the next learning stage
  - turn.appended: A turn was recorded in the conversation ledger

Stream Events:
  - stream.delta: A text fragment arrived from the completion provider
  - stream.ended: A streamed tutor reply finished
  - stream.failed: A streamed tutor reply aborted

# Basic Usage

Publishing events:

	// Asynchronous publishing (non-blocking)
	event.Publish(event.Event{
		Type: event.SessionCreated,
		Data: event.SessionCreatedData{
			Info: info,
		},
	})

	// Synchronous publishing (blocking until all subscribers complete)
	event.PublishSync(event.Event{
		Type: event.StreamDelta,
		Data: event.StreamDeltaData{
			SessionID: id,
			Delta:     delta,
		},
	})

Subscribing to specific events:

	unsubscribe := event.Subscribe(event.SessionCreated, func(e event.Event) {
		data := e.Data.(event.SessionCreatedData)
		log.Info("Session created", "id", data.Info.ID)
	})
	defer unsubscribe()

Subscribing to all events:

	unsubscribe := event.SubscribeAll(func(e event.Event) {
		log.Debug("Event received", "type", e.Type)
	})
	defer unsubscribe()

# Subscriber Safety Guidelines

When using PublishSync, subscribers are called synchronously in the publisher's
goroutine. To avoid blocking or deadlocks, subscribers MUST:

  - Complete quickly (avoid long-running operations)
  - Use non-blocking channel sends (select with default case)
  - Never call Publish/PublishSync from within a subscriber (no re-entrant publishing)
  - Never acquire locks that the publisher might hold

Example of a safe subscriber:

	event.SubscribeAll(func(e event.Event) {
	    select {
	    case eventChan <- e:
	        // Event sent successfully
	    default:
	        // Channel full, drop event to avoid blocking
	        log.Warn("Event dropped due to full channel", "type", e.Type)
	    }
	})

# Custom Event Bus

For testing or isolation, you can create custom bus instances:

	bus := event.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe(event.SessionCreated, handler)
	bus.PublishSync(event.Event{Type: event.SessionCreated, Data: data})

# Testing

The package provides utilities for testing:

	// Reset global bus state (use in test cleanup)
	event.Reset()

# Thread Safety

The event bus is thread-safe and can be used concurrently from multiple
goroutines. Both publishing and subscribing operations are protected by
internal synchronization.

# Performance Considerations

  - Asynchronous publishing (Publish) creates a goroutine per subscriber per event
  - Synchronous publishing (PublishSync) calls all subscribers in the current goroutine
  - Use PublishSync for critical events where ordering matters
  - Use Publish for fire-and-forget notifications

# Integration with Watermill

The package uses watermill's gochannel internally, providing access to the
underlying pubsub infrastructure for advanced use cases:

	pubsub := event.PubSub()

This allows future migration to distributed message brokers if needed while
maintaining the current API.
*/
package event
