package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"leadfunnel/internal/platform/testkit"
)

const page = `<!doctype html><html><body>
<header><nav><a href="/pricing" class="nav-link">Pricing</a></nav></header>
<main>
  <section class="hero">
    <h1>Grow faster</h1>
    <button id="demo" class="btn cta">Book   a
      demo</button>
    <div class="card pricing-card featured extra"><span>Starter plan with everything you need to launch a store today</span></div>
    <p>first</p><p>second</p>
  </section>
  <form id="lead" action="/leads" method="post">
    <input name="email" type="email">
    <input name="password" type="password">
    <input name="card" class="sensitive-data">
    <textarea name="message"></textarea>
    <select name="service"><option>growth</option></select>
    <input type="submit" value="Send">
  </form>
  <script>var ignored = 1;</script>
</main>
</body></html>`

func mustPage(t *testing.T) *html.Node {
	t.Helper()
	doc, err := ParseString(page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestDescribe(t *testing.T) {
	doc := mustPage(t)

	d := Describe(FindByID(doc, "demo"))
	if d.Selector != "#demo" || d.Tag != "button" || d.Text != "Book a demo" {
		t.Fatalf("id descriptor = %+v", d)
	}

	card := MustCompile(".pricing-card").First(doc)
	d = Describe(card)
	if d.Selector != "div.card.pricing-card.featured" {
		t.Fatalf("class selector = %q", d.Selector)
	}
	if len([]rune(d.Text)) != TextLimit || strings.HasSuffix(d.Text, "…") {
		t.Fatalf("text not truncated to %d runes: %q", TextLimit, d.Text)
	}

	ps := MustCompile("section p").All(doc)
	if len(ps) != 2 {
		t.Fatalf("want 2 paragraphs, got %d", len(ps))
	}
	if got := Describe(ps[1]).Selector; got != "p:nth-child(5)" {
		t.Fatalf("nth-child selector = %q", got)
	}
}

func TestDescribe_NonElement(t *testing.T) {
	if d := Describe(nil); d.Selector != "" {
		t.Fatalf("nil node described: %+v", d)
	}
}

func TestText_SkipsScript(t *testing.T) {
	doc := mustPage(t)
	main := MustCompile("main").First(doc)
	testkit.MustNotContain(t, Text(main), "ignored")
}

func TestSelectorMatch(t *testing.T) {
	doc := mustPage(t)
	tests := []struct {
		sel  string
		node *html.Node
		want bool
	}{
		{"button", FindByID(doc, "demo"), true},
		{".btn.cta", FindByID(doc, "demo"), true},
		{".btn.missing", FindByID(doc, "demo"), false},
		{"main #demo", FindByID(doc, "demo"), true},
		{"header #demo", FindByID(doc, "demo"), false},
		{"form, a", FindByID(doc, "lead"), true},
		{"*", FindByID(doc, "lead"), true},
		{`input[type="submit"]`, MustCompile("[type=submit]").First(doc), true},
		{"input[type=password], .sensitive-data, [data-sensitive]", MustCompile("[name=card]").First(doc), true},
		{"[data-sensitive]", MustCompile("[name=email]").First(doc), false},
	}
	for _, tt := range tests {
		if got := MustCompile(tt.sel).Match(tt.node); got != tt.want {
			t.Fatalf("%q match = %v, want %v", tt.sel, got, tt.want)
		}
	}
}

func TestSelectorClosest(t *testing.T) {
	doc := mustPage(t)
	span := MustCompile(".pricing-card span").First(doc)
	if span == nil {
		t.Fatal("span not found")
	}
	got := MustCompile("button, .pricing-card").Closest(span)
	if got == nil || Attr(got, "class") != "card pricing-card featured extra" {
		t.Fatalf("closest = %v", got)
	}
	if MustCompile("nav").Closest(span) != nil {
		t.Fatal("unexpected nav ancestor")
	}
}

func TestCompileErrors(t *testing.T) {
	for _, bad := range []string{"div[", ".", "#", "a[]", "a>b"} {
		if _, err := Compile(bad); err == nil {
			t.Fatalf("Compile(%q) should fail", bad)
		}
	}
	s, err := Compile(" , ")
	if err != nil || !s.Empty() {
		t.Fatalf("blank list: %v empty=%v", err, s.Empty())
	}
	testkit.MustPanic(t, func() { MustCompile("[") })
}

func TestMatch_NilNode(t *testing.T) {
	if MustCompile("div").Match(nil) {
		t.Fatal("nil matched")
	}
}

func TestFieldCountAndForm(t *testing.T) {
	doc := mustPage(t)
	form := FindByID(doc, "lead")
	if got := FieldCount(form); got != 6 {
		t.Fatalf("field count = %d", got)
	}
	in := MustCompile("[name=email]").First(doc)
	if Form(in) != form {
		t.Fatal("form ancestor not found")
	}
	if Form(FindByID(doc, "demo")) != nil {
		t.Fatal("button is not in a form")
	}
}
