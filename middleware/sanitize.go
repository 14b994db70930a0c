package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kevinaaaquil/bookshelf/utils"
)

const maxJSONBody = 1 << 20

// Sanitize strips operator-looking keys ("$..." or dotted) from JSON bodies
// and from the query string before any handler sees them. Bodies that are not
// valid JSON are passed on unchanged for the handler to reject.
func Sanitize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query(); len(q) > 0 {
			dropped := 0
			for k := range q {
				if utils.UnsafeKey(k) {
					q.Del(k)
					dropped++
				}
			}
			if dropped > 0 {
				r.URL.RawQuery = q.Encode()
			}
		}
		if r.Body != nil && isJSON(r) {
			raw, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
			_ = r.Body.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "failed to read body")
				return
			}
			if len(raw) > maxJSONBody {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			var doc interface{}
			if json.Unmarshal(raw, &doc) == nil {
				if clean, n := utils.Sanitize(doc); n > 0 {
					log.Warn().Str("path", r.URL.Path).Int("keys", n).Msg("stripped operator keys from body")
					if out, err := json.Marshal(clean); err == nil {
						raw = out
					}
				}
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))
			r.ContentLength = int64(len(raw))
		}
		next.ServeHTTP(w, r)
	})
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}
