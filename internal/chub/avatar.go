package chub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"chublink/internal/metrics"
)

// fetchAvatars dispatches one fetch per node and waits for all of them to
// settle. Index i of the result corresponds to nodes[i]; a nil entry means
// no usable image. One slow or broken avatar never fails the batch.
func (c *Client) fetchAvatars(ctx context.Context, nodes []node) []*Avatar {
	avatars := make([]*Avatar, len(nodes))
	var wg sync.WaitGroup
	for i, n := range nodes {
		wg.Add(1)
		go func(i int, n node) {
			defer wg.Done()
			avatars[i] = c.fetchAvatar(ctx, n)
		}(i, n)
	}
	wg.Wait()
	return avatars
}

// fetchAvatar resolves one thumbnail. Every failure path returns nil, the
// absent marker; callers render a placeholder in that case.
func (c *Client) fetchAvatar(ctx context.Context, n node) *Avatar {
	if n.FullPath == "" {
		metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}

	target := n.AvatarURL
	if target == "" {
		target = fmt.Sprintf(c.avatarTemplate, url.PathEscape(n.FullPath))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeTransport).Inc()
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeTransport).Inc()
		return nil
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("url", target).Debug("chub.avatar.transport_failed")
		metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeTransport).Inc()
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil
	}
	ctype := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ctype, "image/") {
		c.log.WithField("content_type", ctype).Debug("chub.avatar.not_an_image")
		metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeTransport).Inc()
		return nil
	}

	metrics.AvatarFetchesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return &Avatar{Data: data, ContentType: ctype}
}
