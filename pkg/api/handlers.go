package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/psaab/foamdict/pkg/dictionary"
	"github.com/psaab/foamdict/pkg/dictstore"
	"github.com/psaab/foamdict/pkg/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

// errorStatus maps dictionary and store errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, dictionary.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dictstore.ErrNotConfiguring):
		return http.StatusConflict
	case errors.Is(err, dictionary.ErrTypeMismatch),
		errors.Is(err, dictionary.ErrScope),
		errors.Is(err, dictionary.ErrParse):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// matchOption reads ?recursive= and ?patterns= flags. Both default to the
// library defaults: local search with pattern matching.
func matchOption(r *http.Request) dictionary.MatchOption {
	opt := dictionary.MatchDefault
	q := r.URL.Query()
	if b, err := strconv.ParseBool(q.Get("recursive")); err == nil && b {
		opt |= dictionary.MatchRecursive
	}
	if b, err := strconv.ParseBool(q.Get("patterns")); err == nil && !b {
		opt &^= dictionary.MatchPattern
	}
	return opt
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	d := s.store.Active()
	st := s.store.Stats()
	resp := StatusResponse{
		Uptime:      time.Since(s.startTime).Truncate(time.Second).String(),
		Name:        d.Name(),
		Entries:     st.Entries,
		Patterns:    st.Patterns,
		Digest:      d.Digest(),
		Commits:     st.Commits,
		Configuring: st.Configuring,
		Dirty:       st.Dirty,
	}
	if !st.LastCommit.IsZero() {
		resp.LastCommit = st.LastCommit.Format(time.RFC3339)
	}
	writeOK(w, resp)
}

// lookupHandler resolves ?key= against the active dictionary using scoped
// search.
func (s *Server) lookupHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}
	d := s.store.Active()
	e, err := d.LookupEntry(key, matchOption(r))
	if err != nil {
		writeError(w, errorStatus(err), d.WithSuggestions(key, err).Error())
		return
	}
	resp := LookupResponse{
		Keyword: e.Keyword().Name,
		Pattern: e.Keyword().Pattern,
		Line:    e.Line(),
		IsDict:  e.IsDict(),
	}
	if owner := e.Owner(); owner != nil {
		resp.Scope = owner.Name()
	}
	if sub, err := e.Dict(); err == nil {
		resp.Value = sub.String()
	} else {
		resp.Value = e.Value()
	}
	writeOK(w, resp)
}

// expandHandler expands ?text= against the active dictionary. ?scope= picks
// the sub-dictionary variables are resolved from.
func (s *Server) expandHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d := s.store.Active()
	if scope := q.Get("scope"); scope != "" {
		sub, err := d.SubDict(scope, matchOption(r))
		if err != nil {
			writeError(w, errorStatus(err), err.Error())
			return
		}
		d = sub
	}
	opts := dictionary.ExpandOptions{AllowEnv: s.allowEnv}
	if b, err := strconv.ParseBool(q.Get("empty")); err == nil {
		opts.AllowEmpty = b
	}
	writeOK(w, OutputResponse{Output: d.Expand(q.Get("text"), opts)})
}

func (s *Server) digestHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	d := s.store.Active()
	if key == "" {
		writeOK(w, DigestResponse{Digest: d.Digest()})
		return
	}
	e, err := d.LookupEntry(key, matchOption(r))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeOK(w, DigestResponse{Keyword: key, Digest: dictionary.EntryDigest(e)})
}

// exportHandler renders the active dictionary. ?format= is one of dict
// (default), flat, json, yaml or tree.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	out, err := render(s.store.Active(), r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOK(w, OutputResponse{Output: out})
}

func render(d *dictionary.Dictionary, format string) (string, error) {
	switch format {
	case "", "dict":
		return d.String(), nil
	case "flat":
		var out string
		for _, fe := range d.Flatten() {
			out += fe.String() + "\n"
		}
		return out, nil
	case "json":
		b, err := d.ToJSON()
		return string(b), err
	case "yaml":
		b, err := d.ToYAML()
		return string(b), err
	case "tree":
		return d.ToTree(), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func (s *Server) configEnterHandler(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.EnterConfigure(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeOK(w, ConfigStatus{ConfigMode: true})
}

func (s *Server) configExitHandler(w http.ResponseWriter, _ *http.Request) {
	s.store.ExitConfigure()
	writeOK(w, ConfigStatus{})
}

func (s *Server) configStatusHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, ConfigStatus{
		ConfigMode: s.store.InConfigMode(),
		Dirty:      s.store.IsDirty(),
	})
}

func (s *Server) configSetHandler(w http.ResponseWriter, r *http.Request) {
	var req SetRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.store.Set(req.Path, req.Value); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeOK(w, ConfigStatus{ConfigMode: true, Dirty: s.store.IsDirty()})
}

func (s *Server) configDeleteHandler(w http.ResponseWriter, r *http.Request) {
	var req SetRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.store.Delete(req.Path); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeOK(w, ConfigStatus{ConfigMode: true, Dirty: s.store.IsDirty()})
}

func (s *Server) configLoadHandler(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = "api"
	}
	var err error
	switch req.Mode {
	case "", "merge":
		err = s.store.LoadMerge(req.Name, req.Text)
	case "override":
		err = s.store.LoadOverride(req.Name, req.Text)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown load mode %q", req.Mode))
		return
	}
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeOK(w, ConfigStatus{ConfigMode: true, Dirty: s.store.IsDirty()})
}

func (s *Server) configCommitHandler(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if r.ContentLength != 0 && !readJSON(w, r, &req) {
		return
	}
	d, err := s.store.Commit(req.Comment)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	slog.Info("commit via API", "comment", req.Comment, "remote", r.RemoteAddr)
	writeOK(w, DigestResponse{Digest: d.Digest()})
}

func (s *Server) configRollbackHandler(w http.ResponseWriter, r *http.Request) {
	var req RollbackRequest
	if r.ContentLength != 0 && !readJSON(w, r, &req) {
		return
	}
	if err := s.store.Rollback(req.N); err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeOK(w, ConfigStatus{ConfigMode: true, Dirty: s.store.IsDirty()})
}

// configShowHandler shows the candidate, or the active dictionary with
// ?target=active. ?format=flat lists one path per line.
func (s *Server) configShowHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var out string
	switch {
	case q.Get("target") == "active":
		var err error
		if out, err = render(s.store.Active(), q.Get("format")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	case !s.store.InConfigMode():
		writeError(w, http.StatusConflict, dictstore.ErrNotConfiguring.Error())
		return
	case q.Get("format") == "flat":
		out = s.store.ShowCandidateFlat()
	default:
		out = s.store.ShowCandidate()
	}
	writeOK(w, OutputResponse{Output: out})
}

func (s *Server) configCompareHandler(w http.ResponseWriter, _ *http.Request) {
	if !s.store.InConfigMode() {
		writeError(w, http.StatusConflict, dictstore.ErrNotConfiguring.Error())
		return
	}
	writeOK(w, OutputResponse{Output: s.store.ShowCompare()})
}

func (s *Server) configHistoryHandler(w http.ResponseWriter, _ *http.Request) {
	hist := s.store.History()
	entries := make([]HistoryEntry, 0, len(hist))
	for i, h := range hist {
		entries = append(entries, HistoryEntry{
			Index:     i + 1,
			Timestamp: h.Timestamp.Format(time.RFC3339),
			Digest:    h.Digest,
			Comment:   h.Comment,
			Entries:   h.Dict.Len(),
		})
	}
	writeOK(w, entries)
}

// logsHandler lists recent buffered log records, newest first.
// Supports ?level=, ?contains= and ?limit= (default 100).
func (s *Server) logsHandler(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeError(w, http.StatusServiceUnavailable, "log buffer not available")
		return
	}
	filter, err := parseRecordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	recs := s.logs.Latest(limit, filter)
	if recs == nil {
		recs = []logging.Record{}
	}
	writeOK(w, recs)
}

func parseRecordFilter(r *http.Request) (logging.RecordFilter, error) {
	q := r.URL.Query()
	f := logging.RecordFilter{MinLevel: slog.LevelDebug, Contains: q.Get("contains")}
	if v := q.Get("level"); v != "" {
		lvl, err := logging.ParseLevel(v)
		if err != nil {
			return f, err
		}
		f.MinLevel = lvl
	}
	return f, nil
}
