package testutil

import (
	"net/http"
	"time"

	"carefund/pkg/requestcontext"
)

// AtTime pins the request clock the way the request-time middleware would,
// letting tests move past voting deadlines without sleeping.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
