package capture

import (
	"sync"
	"time"

	"golang.org/x/net/html"
)

// EventType names a host event
type EventType string

// Host events
const (
	EventClick      EventType = "click"
	EventMouseMove  EventType = "mousemove"
	EventScroll     EventType = "scroll"
	EventMouseOver  EventType = "mouseover"
	EventMouseOut   EventType = "mouseout"
	EventInput      EventType = "input"
	EventKeyDown    EventType = "keydown"
	EventSubmit     EventType = "submit"
	EventResize     EventType = "resize"
	EventFocus      EventType = "focus"
	EventBlur       EventType = "blur"
	EventNavigation EventType = "navigation"
	EventUnload     EventType = "unload"
)

// Event is one host event. Target is nil for window-level events
type Event struct {
	Type    EventType
	Target  *html.Node
	X, Y    int
	Button  int
	ScrollX int
	ScrollY int
	Value   string
	Key     string
	Width   int
	Height  int
	At      time.Time
}

// Source delivers host events until cancel is called
type Source interface {
	Subscribe(fn func(Event)) (cancel func())
}

// Bus fans events out to subscribers in subscription order
type Bus struct {
	mu   sync.Mutex
	seq  int
	subs map[int]func(Event)
	ord  []int
}

// NewBus returns an empty bus
func NewBus() *Bus { return &Bus{subs: map[int]func(Event){}} }

func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	id := b.seq
	b.subs[id] = fn
	b.ord = append(b.ord, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, x := range b.ord {
				if x == id {
					b.ord = append(b.ord[:i], b.ord[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers e to every current subscriber
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.ord))
	for _, id := range b.ord {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// Subscribers counts attached listeners
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ord)
}
