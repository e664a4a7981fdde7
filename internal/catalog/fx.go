package catalog

import "go.uber.org/fx"

// Module provides the catalog and plan registry. Constructor errors abort
// startup: bad catalog data is a deploy-time error, never a runtime one.
var Module = fx.Module("catalog",
	fx.Provide(NewCatalog),
	fx.Provide(NewPlanRegistry),
)
