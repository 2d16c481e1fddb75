package middleware

import (
	"mime"
	"net/http"
)

// RequireForm rejects request bodies that are not HTML form encodings.
// Requests without a Content-Type pass through and read as an empty form.
func RequireForm(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			next.ServeHTTP(w, r)
			return
		}
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != "application/x-www-form-urlencoded" && mt != "multipart/form-data") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Expected a form submission")
			return
		}
		next.ServeHTTP(w, r)
	})
}
