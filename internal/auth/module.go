package auth

import "go.uber.org/fx"

// Module provides the OAuth login service dependencies
var Module = fx.Module("auth",
	fx.Provide(
		NewProvider,
		NewService,
	),
)
