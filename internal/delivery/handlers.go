// Package delivery exposes the search/import pipeline over HTTP for the
// browser-side panel.
package delivery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"chublink/internal/chub"
	"chublink/internal/host"
	"chublink/internal/logger"
	"chublink/internal/settings"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chublink_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "code"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
}

// Server wires the pipeline pieces behind HTTP handlers. Each request gets
// its own ListState seeded from nothing; the stateful debounced session
// belongs to interactive surfaces, not to a stateless HTTP adapter.
type Server struct {
	Log      *logrus.Logger
	Client   *chub.Client
	Importer *host.Importer
	Store    *settings.Store
}

// Structured error envelope
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: ErrorBody{Code: code, Message: message, Details: details},
	})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	requestsTotal.WithLabelValues("health", "200").Inc()
}

func (s *Server) Metrics() http.Handler { return promhttp.Handler() }

// characterItem is the wire shape of one listed entry.
type characterItem struct {
	ID          string   `json:"id,omitempty"`
	FullPath    string   `json:"fullPath"`
	Name        string   `json:"name"`
	Tagline     string   `json:"tagline,omitempty"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
	PageURL     string   `json:"pageUrl"`
	Thumbnail   string   `json:"thumbnail,omitempty"` // data URI, only with ?thumbs=1
}

// Search handles GET /search?q=&tags=&exclude_tags=&sort=&nsfw=&page=.
// The endpoint is stateless by contract: each request runs against a fresh
// ListState, so an upstream outage returns 200 with count 0 instead of a
// previously served page. Callers that want the last good list kept across
// an outage hold on to their own previous response.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	defer logger.Track(r.Context(), "search")()
	q := r.URL.Query()

	defaults, err := s.Store.Load(r.Context())
	if err != nil {
		s.Log.WithError(err).Warn("settings.load_failed")
		defaults = settings.Settings{FindCount: settings.DefaultFindCount, NSFW: settings.DefaultNSFW}
	}

	crit := chub.Criteria{
		SearchTerm:  q.Get("q"),
		IncludeTags: splitParam(q.Get("tags")),
		ExcludeTags: splitParam(q.Get("exclude_tags")),
		Sort:        q.Get("sort"),
		NSFW:        defaults.NSFW,
		Page:        atoiDefault(q.Get("page"), 1),
		First:       atoiDefault(q.Get("first"), defaults.FindCount),
	}
	if v := q.Get("nsfw"); v != "" {
		crit.NSFW, _ = strconv.ParseBool(v)
		crit.NSFWSet = true
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	state := chub.NewListState()
	results := s.Client.Search(ctx, state, crit)

	withThumbs := q.Get("thumbs") == "1"
	items := make([]characterItem, 0, len(results))
	for _, c := range results {
		item := characterItem{
			ID:          c.ID,
			FullPath:    c.FullPath,
			Name:        c.Name,
			Tagline:     c.Tagline,
			Description: c.Description,
			Author:      c.Author,
			Tags:        c.Tags,
			PageURL:     c.PageURL(),
		}
		if withThumbs && c.Avatar != nil {
			item.Thumbnail = "data:" + c.Avatar.ContentType + ";base64," +
				base64.StdEncoding.EncodeToString(c.Avatar.Data)
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":  crit.Page,
		"count": len(items),
		"items": items,
	})
	requestsTotal.WithLabelValues("search", "200").Inc()
}

// Import handles POST /import with body {"url": "<fullPath>"}.
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "body must carry a non-empty url", nil)
		requestsTotal.WithLabelValues("import", "400").Inc()
		return
	}

	out := s.Importer.Import(r.Context(), body.URL)
	switch out.Status {
	case host.StatusImported:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   string(out.Status),
			"filename": out.Filename,
		})
		requestsTotal.WithLabelValues("import", "200").Inc()
	case host.StatusRejected:
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":   string(out.Status),
			"fallback": out.FallbackURL,
			"error":    out.Err.Error(),
		})
		requestsTotal.WithLabelValues("import", "502").Inc()
	case host.StatusUnsupported:
		WriteError(w, http.StatusUnprocessableEntity, "unsupported_content",
			"host returned an unsupported content type", out.ContentType)
		requestsTotal.WithLabelValues("import", "422").Inc()
	default:
		WriteError(w, http.StatusBadGateway, "import_failed", out.Err.Error(), nil)
		requestsTotal.WithLabelValues("import", "502").Inc()
	}
}

// Settings handles GET and PUT /settings.
func (s *Server) Settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		v, err := s.Store.Load(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "settings_error", err.Error(), nil)
			requestsTotal.WithLabelValues("settings", "500").Inc()
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"findCount": v.FindCount, "nsfw": v.NSFW})
		requestsTotal.WithLabelValues("settings", "200").Inc()
	case http.MethodPut, http.MethodPost:
		var body struct {
			FindCount int  `json:"findCount"`
			NSFW      bool `json:"nsfw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "bad_request", "invalid json body", err.Error())
			requestsTotal.WithLabelValues("settings", "400").Inc()
			return
		}
		if err := s.Store.Save(r.Context(), settings.Settings{FindCount: body.FindCount, NSFW: body.NSFW}); err != nil {
			WriteError(w, http.StatusInternalServerError, "settings_error", err.Error(), nil)
			requestsTotal.WithLabelValues("settings", "500").Inc()
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		requestsTotal.WithLabelValues("settings", "200").Inc()
	default:
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method, nil)
		requestsTotal.WithLabelValues("settings", "405").Inc()
	}
}

// History handles GET /imports — the recent import attempts.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 20)
	recs, err := s.Store.RecentImports(r.Context(), limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "history_error", err.Error(), nil)
		requestsTotal.WithLabelValues("imports", "500").Inc()
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": recs})
	requestsTotal.WithLabelValues("imports", "200").Inc()
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
