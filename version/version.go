package version

import "github.com/blang/semver/v4"

// RawVersion is the version of the built library or binary.
const RawVersion = "0.3.0"

// Version is RawVersion parsed into its semantic components. Keeping the
// parse at package init catches a malformed RawVersion in every build.
var Version = semver.MustParse(RawVersion)
