package server

import (
	"github.com/venturelink/venturelink/internal/module"
	"github.com/venturelink/venturelink/internal/modules/documents"
	"github.com/venturelink/venturelink/internal/modules/investments"
	"github.com/venturelink/venturelink/internal/modules/messaging"
	"github.com/venturelink/venturelink/internal/modules/profiles"
)

// AppModules returns the application modules in boot order. Messaging goes
// first so its client events are whitelisted before any connection is
// accepted.
func AppModules() []module.Module {
	return []module.Module{
		&messaging.Module{},
		&profiles.Module{},
		&documents.Module{},
		&investments.Module{},
	}
}
