package database

import (
	"github.com/surrealdb/surrealdb.go"
	"github.com/venturelink/venturelink/internal/registry"
)

// ConnKey is the registry key for the shared SurrealDB connection.
var ConnKey = registry.Key[*surrealdb.DB]("database.connection")
