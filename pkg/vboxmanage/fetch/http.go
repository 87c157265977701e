package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/containers/storage/pkg/ioutils"
	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/vboxmanage/progress"
)

// HTTPProvider downloads over plain HTTP(S). The destination is written
// through an atomic writer, so a failed transfer never leaves a partial
// file behind.
type HTTPProvider struct {
	client *http.Client
}

// NewHTTPProvider returns a provider using client, or http.DefaultClient
// when client is nil.
func NewHTTPProvider(client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{client: client}
}

// DownloadFile fetches url into dest.
func (p *HTTPProvider) DownloadFile(ctx context.Context, url, dest string, pf progress.Reporter) error {
	pf = progress.OrDiscard(pf)
	pf.SetMax(1)
	pf.Doing("Downloading " + path.Base(dest))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		pf.Fail("Download failed", err)
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		pf.Fail("Download failed", err)
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("downloading %s: %s", url, resp.Status)
		pf.Fail("Download failed", err)
		return err
	}

	out, err := ioutils.NewAtomicFileWriter(dest, 0644)
	if err != nil {
		pf.Fail("Download failed", err)
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		// The atomic writer discards its temporary file after a write
		// error, but a read error is invisible to it and closing would
		// commit whatever arrived. Scrub both.
		if closeErr := out.Close(); closeErr != nil {
			logrus.Error(closeErr)
		}
		if removeErr := os.Remove(dest); removeErr != nil && !os.IsNotExist(removeErr) {
			logrus.Error(removeErr)
		}
		pf.Fail("Download failed", err)
		return err
	}
	if err := out.Close(); err != nil {
		pf.Fail("Download failed", err)
		return err
	}

	pf.Complete("Downloaded " + path.Base(dest))
	return nil
}
