// Package probe reads viewport and visitor metadata from the host window
package probe

import (
	"net/url"
	"strings"
)

// Viewport is the visible area and scroll offset
type Viewport struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	ScrollX          int     `json:"scroll_x"`
	ScrollY          int     `json:"scroll_y"`
	DevicePixelRatio float64 `json:"device_pixel_ratio"`
}

// Window is what the host page exposes to capture code
type Window interface {
	Viewport() Viewport
	DocumentHeight() int
	URL() string
	UserAgent() string
	Referrer() string
}

// StaticWindow is a settable Window for headless hosts
type StaticWindow struct {
	View      Viewport
	DocHeight int
	PageURL   string
	UA        string
	Ref       string
}

func (w *StaticWindow) Viewport() Viewport  { return w.View }
func (w *StaticWindow) DocumentHeight() int { return w.DocHeight }
func (w *StaticWindow) URL() string         { return w.PageURL }
func (w *StaticWindow) UserAgent() string   { return w.UA }
func (w *StaticWindow) Referrer() string    { return w.Ref }

// Resize updates the viewport size
func (w *StaticWindow) Resize(width, height int) { w.View.Width, w.View.Height = width, height }

// ScrollTo updates the scroll offset
func (w *StaticWindow) ScrollTo(x, y int) { w.View.ScrollX, w.View.ScrollY = x, y }

// MaxScroll is how far the page can scroll vertically
func MaxScroll(w Window) int {
	return max(0, w.DocumentHeight()-w.Viewport().Height)
}

// UTM holds campaign parameters
type UTM struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Empty reports whether no parameter was set
func (u UTM) Empty() bool { return u == UTM{} }

// ParseUTM extracts utm_* query parameters from a page URL
func ParseUTM(pageURL string) UTM {
	u, err := url.Parse(pageURL)
	if err != nil {
		return UTM{}
	}
	q := u.Query()
	return UTM{
		Source:   q.Get("utm_source"),
		Medium:   q.Get("utm_medium"),
		Campaign: q.Get("utm_campaign"),
		Term:     q.Get("utm_term"),
		Content:  q.Get("utm_content"),
	}
}

// Metadata describes the visitor environment
type Metadata struct {
	Device   string   `json:"device"`
	Browser  string   `json:"browser"`
	OS       string   `json:"os"`
	Referrer string   `json:"referrer,omitempty"`
	UTM      UTM      `json:"utm"`
	Viewport Viewport `json:"viewport"`
}

// Collect snapshots metadata from w
func Collect(w Window) Metadata {
	ua := w.UserAgent()
	return Metadata{
		Device:   ClassifyDevice(ua),
		Browser:  ClassifyBrowser(ua),
		OS:       ClassifyOS(ua),
		Referrer: w.Referrer(),
		UTM:      ParseUTM(w.URL()),
		Viewport: w.Viewport(),
	}
}

// ClassifyDevice buckets a user agent into mobile, tablet or desktop
func ClassifyDevice(ua string) string {
	l := strings.ToLower(ua)
	switch {
	case strings.Contains(l, "ipad"), strings.Contains(l, "tablet"),
		strings.Contains(l, "android") && !strings.Contains(l, "mobile"):
		return "tablet"
	case strings.Contains(l, "mobi"), strings.Contains(l, "iphone"), strings.Contains(l, "ipod"),
		strings.Contains(l, "android"):
		return "mobile"
	default:
		return "desktop"
	}
}

// ClassifyBrowser checks Edge and Opera before Chrome, and Chrome before Safari,
// since their user agents embed each other's tokens
func ClassifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Edg"):
		return "Edge"
	case strings.Contains(ua, "OPR"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Chrome"), strings.Contains(ua, "CriOS"):
		return "Chrome"
	case strings.Contains(ua, "Firefox"), strings.Contains(ua, "FxiOS"):
		return "Firefox"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	default:
		return "Unknown"
	}
}

// ClassifyOS names the operating system in ua
func ClassifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"), strings.Contains(ua, "iPod"):
		return "iOS"
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}
