// Package fetch abstracts how remote artifacts reach the local disk, so
// the installer logic stays independent of the transport and tests can
// substitute canned files.
package fetch

import (
	"context"

	"github.com/containers/libvbox/pkg/vboxmanage/progress"
)

// DownloadProvider fetches a single remote file to a local destination
// path. Implementations report coarse progress through pf and must not
// leave a partial file at dest on failure.
type DownloadProvider interface {
	DownloadFile(ctx context.Context, url, dest string, pf progress.Reporter) error
}
