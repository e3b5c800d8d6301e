package app

import "github.com/agentstation/parcelmap/cmd/application"

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)
