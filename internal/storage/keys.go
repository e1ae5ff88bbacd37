package storage

import "github.com/venturelink/venturelink/internal/registry"

// StoreKey is the registry key for the shared blob store.
var StoreKey = registry.Key[Store]("storage.store")
