// Package defaults provides embedded default assets (config and package skeleton).
package defaults

import _ "embed"

//go:embed default_config.toml
var DefaultConfigTOML []byte

//go:embed package_skeleton.json
var PackageSkeleton string
