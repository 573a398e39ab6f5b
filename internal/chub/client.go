package chub

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"chublink/internal/config"
	"chublink/internal/metrics"
)

// Client talks to the CHub search gateway and avatar CDN. All failure paths
// of Search degrade to the previous (or an empty) list; the pipeline never
// surfaces an error to its caller.
type Client struct {
	http           *http.Client
	log            *logrus.Logger
	limiter        *rate.Limiter
	searchURL      string
	avatarTemplate string
	sanitize       *bluemonday.Policy
}

// NewClient builds a client from the chub section of the config.
func NewClient(cfg config.ChubConfig, log *logrus.Logger) *Client {
	return &Client{
		http:           newHTTPClient(time.Duration(cfg.TimeoutSec) * time.Second),
		log:            log,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		searchURL:      cfg.SearchURL,
		avatarTemplate: cfg.AvatarTemplate,
		sanitize:       bluemonday.StrictPolicy(),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		MaxIdleConns:       100,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
		ForceAttemptHTTP2:  true,
	}
	return &http.Client{Transport: t, Timeout: timeout}
}

// searchEnvelope is the part of the response body we consume.
type searchEnvelope struct {
	Data struct {
		Nodes []node `json:"nodes"`
	} `json:"data"`
}

// Search runs the full pipeline: build query, call the gateway, validate the
// payload, fetch avatars for every node, rebuild the list and commit it into
// st. On transport failure or a malformed payload the previous list is
// returned untouched; an empty nodes array clears the list.
func (c *Client) Search(ctx context.Context, st *ListState, crit Criteria) []CharacterSummary {
	seq := st.next()
	timer := time.Now()

	body, ok := c.fetchSearchPage(ctx, crit)
	if !ok {
		metrics.SearchesTotal.WithLabelValues(metrics.OutcomeTransport).Inc()
		return st.Entries()
	}

	if err := validateSearchPayload(body); err != nil {
		c.log.WithError(err).Warn("chub.search.malformed")
		metrics.SearchesTotal.WithLabelValues(metrics.OutcomeMalformed).Inc()
		return st.Entries()
	}

	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		// schema passed but decoding still failed; treat like malformed
		c.log.WithError(err).Warn("chub.search.decode_failed")
		metrics.SearchesTotal.WithLabelValues(metrics.OutcomeMalformed).Inc()
		return st.Entries()
	}

	nodes := env.Data.Nodes
	if len(nodes) == 0 {
		// a genuinely empty result clears the list, unlike the error paths
		st.replace(seq, []CharacterSummary{})
		metrics.SearchesTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return st.Entries()
	}

	avatars := c.fetchAvatars(ctx, nodes)

	summaries := make([]CharacterSummary, 0, len(nodes))
	for i, n := range nodes {
		if n.FullPath == "" {
			continue
		}
		summaries = append(summaries, CharacterSummary{
			ID:          string(n.ID),
			FullPath:    n.FullPath,
			Name:        c.sanitize.Sanitize(n.Name),
			Tagline:     c.sanitize.Sanitize(n.Tagline),
			Description: c.sanitize.Sanitize(n.Description),
			Author:      authorOf(n.FullPath),
			Tags:        n.Topics,
			Avatar:      avatars[i],
		})
	}

	if !st.replace(seq, summaries) {
		c.log.WithField("seq", seq).Debug("chub.search.stale_dropped")
		metrics.SearchesTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		return st.Entries()
	}

	metrics.SearchesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.SearchDuration.Observe(time.Since(timer).Seconds())
	c.log.WithFields(logrus.Fields{
		"page":    crit.Page,
		"results": len(summaries),
		"took":    time.Since(timer).String(),
	}).Info("chub.search.completed")
	return summaries
}

// fetchSearchPage performs the GET against the gateway and returns the raw
// body. ok=false covers both transport failures and non-2xx statuses.
func (c *Client) fetchSearchPage(ctx context.Context, crit Criteria) ([]byte, bool) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false
	}

	target := SearchURL(c.searchURL, crit)
	if c.log.IsLevelEnabled(logrus.DebugLevel) {
		c.log.WithField("url", target).Debug("chub.search.request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.log.WithError(err).Warn("chub.search.bad_request")
		return nil, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("chub.search.transport_failed")
		return nil, false
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.WithError(err).Warn("chub.search.read_failed")
		return nil, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
		}).Warn("chub.search.rejected")
		return nil, false
	}
	return data, true
}
