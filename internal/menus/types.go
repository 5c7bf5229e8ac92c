package menus

import showcasemenus "github.com/goliatone/go-showcase/menus"

type Node = showcasemenus.Node

const (
	MenusFile           = showcasemenus.MenusFile
	LocationsFile       = showcasemenus.LocationsFile
	DefaultLocation     = showcasemenus.DefaultLocation
	DefaultFallbackSize = showcasemenus.DefaultFallbackSize
)
