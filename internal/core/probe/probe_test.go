package probe

import "testing"

const (
	uaChromeMac  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	uaEdgeWin    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36 Edg/126.0"
	uaOperaLinux = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36 OPR/110.0"
	uaSafariIOS  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaFirefoxAnd = "Mozilla/5.0 (Android 14; Mobile; rv:127.0) Gecko/127.0 Firefox/127.0"
	uaIPad       = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/604.1"
	uaAndroidTab = "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		ua, device, browser, os string
	}{
		{uaChromeMac, "desktop", "Chrome", "macOS"},
		{uaEdgeWin, "desktop", "Edge", "Windows"},
		{uaOperaLinux, "desktop", "Opera", "Linux"},
		{uaSafariIOS, "mobile", "Safari", "iOS"},
		{uaFirefoxAnd, "mobile", "Firefox", "Android"},
		{uaIPad, "tablet", "Safari", "iOS"},
		{uaAndroidTab, "tablet", "Chrome", "Android"},
		{"curl/8.0", "desktop", "Unknown", "Unknown"},
	}
	for _, tt := range tests {
		if got := ClassifyDevice(tt.ua); got != tt.device {
			t.Errorf("device(%q) = %s, want %s", tt.ua, got, tt.device)
		}
		if got := ClassifyBrowser(tt.ua); got != tt.browser {
			t.Errorf("browser(%q) = %s, want %s", tt.ua, got, tt.browser)
		}
		if got := ClassifyOS(tt.ua); got != tt.os {
			t.Errorf("os(%q) = %s, want %s", tt.ua, got, tt.os)
		}
	}
}

func TestParseUTM(t *testing.T) {
	u := ParseUTM("https://example.com/?utm_source=google&utm_medium=cpc&utm_campaign=spring&x=1")
	if u.Source != "google" || u.Medium != "cpc" || u.Campaign != "spring" || u.Term != "" {
		t.Fatalf("utm = %+v", u)
	}
	if !ParseUTM("::bad url").Empty() {
		t.Fatal("bad url should yield empty utm")
	}
}

func TestCollectAndMaxScroll(t *testing.T) {
	w := &StaticWindow{
		View:      Viewport{Width: 1280, Height: 800, DevicePixelRatio: 2},
		DocHeight: 3000,
		PageURL:   "https://example.com/pricing?utm_source=newsletter",
		UA:        uaChromeMac,
		Ref:       "https://news.example.org",
	}
	md := Collect(w)
	if md.Device != "desktop" || md.UTM.Source != "newsletter" || md.Referrer != "https://news.example.org" {
		t.Fatalf("metadata = %+v", md)
	}
	if got := MaxScroll(w); got != 2200 {
		t.Fatalf("max scroll = %d", got)
	}
	w.Resize(1280, 4000)
	if got := MaxScroll(w); got != 0 {
		t.Fatalf("max scroll on short page = %d", got)
	}
	w.ScrollTo(0, 120)
	if w.Viewport().ScrollY != 120 {
		t.Fatal("scroll not applied")
	}
}
