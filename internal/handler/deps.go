package handler

import (
	"partyrelay/internal/app/directory"
	"partyrelay/internal/app/history"
	"partyrelay/internal/app/relay"
	"partyrelay/internal/app/storage"
	"partyrelay/internal/configs"
)

// AppDeps bundles the dependencies shared by all HTTP handlers.
// Storage is nil when no file storage backend is configured.
type AppDeps struct {
	Hub       *relay.Hub
	Directory *directory.Directory
	History   history.Store
	Storage   storage.Service
	Config    *configs.AppConfig
}
