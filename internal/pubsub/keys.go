package pubsub

import "github.com/venturelink/venturelink/internal/registry"

// Registry keys for the shared bus endpoints.
var (
	PublisherKey  = registry.Key[Publisher]("pubsub.publisher")
	SubscriberKey = registry.Key[Subscriber]("pubsub.subscriber")
)
