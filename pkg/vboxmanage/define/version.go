package define

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// Version is the hypervisor version extracted from `VBoxManage --version`.
// Raw always carries the unmodified version line; the numeric fields are
// zero when the line could not be parsed.
type Version struct {
	Major int
	Minor int
	Build int
	Raw   string
}

// ParseVersion parses VBoxManage version strings such as "7.0.18r162988"
// or "6.1.50_Ubuntur161033". The revision suffix (everything from the
// first 'r' or '_' after the numeric part) is ignored.
func ParseVersion(raw string) Version {
	v := Version{Raw: strings.TrimSpace(raw)}

	numeric := v.Raw
	if i := strings.IndexAny(numeric, "r_"); i > 0 {
		numeric = numeric[:i]
	}

	parsed, err := semver.ParseTolerant(numeric)
	if err != nil {
		return v
	}
	v.Major = int(parsed.Major)
	v.Minor = int(parsed.Minor)
	v.Build = int(parsed.Patch)
	return v
}

// String returns the dotted numeric form, e.g. "7.0.18".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}
