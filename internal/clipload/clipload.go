// Package clipload fetches remote audio clips over HTTP before they are
// handed to a codec.Decoder. It is a host-side concern only: fetching is
// blocking I/O, and the audio callback thread must never block on the
// network, so nothing under internal/audio or internal/mixer imports this
// package. The host fetches a clip here, builds a Decoder from the bytes,
// and only then enqueues an AddTrack request.
package clipload

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher retrieves clip bytes from a host-accessible URL, with retry and
// timeout behavior suited to a control-plane call rather than the realtime
// audio path.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher builds a Fetcher with sane defaults for short-lived clip
// downloads: a bounded timeout and a handful of retries on transient
// network failures or 5xx responses.
func NewFetcher(timeout time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &Fetcher{client: client}
}

// Fetch downloads the clip at url and returns its raw bytes, ready to be
// handed to whichever codec constructor (g711, opus) matches its format.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("clipload: fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("clipload: fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}
