package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// TitleKey is the gin context key handlers set to name the rendered page.
const TitleKey = "analytics.title"

// Middleware tracks server-rendered pages. The hit is taken after the handler
// ran, only for successful GET requests that produced HTML, and is recorded
// in the background.
func Middleware(t *Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		if !strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/html") {
			return
		}
		if !Trackable(c.Request.URL.Path) {
			return
		}

		t.TrackAsync(RequestFromHTTP(c.Request, c.ClientIP(), c.GetString(TitleKey)))
	}
}

// RequestFromHTTP extracts the tracking fields of an incoming page request.
// The hit is stamped with the time of the call.
func RequestFromHTTP(r *http.Request, clientIP, title string) Request {
	return Request{
		IP:         clientIP,
		UserAgent:  r.UserAgent(),
		Path:       r.URL.Path,
		Title:      title,
		Referrer:   r.Referer(),
		LandingURL: r.URL.RequestURI(),
		Host:       r.Host,
		Country:    r.Header.Get("CF-IPCountry"),
		DNT:        r.Header.Get("DNT") == "1" || r.Header.Get("Sec-GPC") == "1",
		At:         time.Now(),
	}
}
