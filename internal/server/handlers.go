package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/npmmeta/pkg/batch"
	"github.com/matzehuels/npmmeta/pkg/buildinfo"
	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/resolve"
	"github.com/matzehuels/npmmeta/pkg/service"
)

type indexResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Docs    string `json:"docs,omitempty"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Name:    buildinfo.Name,
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
		Docs:    s.docsURL,
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, s.svc.Latest)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, s.svc.Versions)
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, s.svc.Engines)
}

func (s *Server) handleFull(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, s.svc.Full)
}

type query[T any] func(ctx context.Context, raw string, opts service.QueryOptions) (batch.Result[T], error)

func serveQuery[T any](s *Server, w http.ResponseWriter, r *http.Request, q query[T]) {
	res, err := q(r.Context(), specsParam(r), queryOptions(r.URL.Query()))
	if err != nil {
		s.logger.Debug("query failed", "path", r.URL.Path, "err", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(s.cacheMaxAge.Seconds())))
	writeJSON(w, http.StatusOK, res)
}

// specsParam returns the unescaped wildcard. Scoped names arrive as
// "@scope%2Fname" and a double-encoded "%252B" becomes "%2B", which the
// batch splitter understands.
func specsParam(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

// queryOptions reads the query string. Flags are on when present with an
// empty value, "true" or "1". throw defaults to on and only "false" turns
// it off. An unparseable after is ignored.
func queryOptions(q url.Values) service.QueryOptions {
	opts := service.QueryOptions{
		Force:    flag(q, "force"),
		Loose:    flag(q, "loose"),
		Metadata: flag(q, "metadata"),
		Throw:    q.Get("throw") != "false",
	}
	if after, ok := resolve.ParseAfter(q.Get("after")); ok {
		opts.After = after
	}
	return opts
}

func flag(q url.Values, key string) bool {
	if !q.Has(key) {
		return false
	}
	switch strings.ToLower(q.Get(key)) {
	case "", "true", "1":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), errorResponse{
		Error: errors.UserMessage(err),
		Code:  code,
	})
}
