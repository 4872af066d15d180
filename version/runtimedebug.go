package version

import (
	"fmt"
	"runtime/debug"
)

// ModulePath is the import path of the library module.
const ModulePath = "github.com/anoideaopen/limitless"

// Unknown is reported when the module version cannot be read from the build
// information, as in tests and builds outside module mode.
const Unknown = "(devel)"

// BuildInfo returns the build information
func BuildInfo() (*debug.BuildInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, fmt.Errorf("fetching build info failed")
	}

	if bi == nil {
		return nil, fmt.Errorf("build information is empty")
	}

	return bi, nil
}

// Module returns the version of the library as recorded in the build
// information of the running binary: the main module version when the
// library is built on its own, the dependency version otherwise.
func Module() string {
	bi, err := BuildInfo()
	if err != nil {
		return Unknown
	}
	return moduleVersion(bi, ModulePath)
}

func moduleVersion(bi *debug.BuildInfo, path string) string {
	if bi.Main.Path == path && bi.Main.Version != "" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		if dep.Version != "" {
			return dep.Version
		}
	}
	return Unknown
}
