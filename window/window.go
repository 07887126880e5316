package window

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// Browser shows the UI by opening its URL in the default browser. Hiding
// only flips the state; the page polls Visible and hides itself.
type Browser struct {
	mu      sync.Mutex
	url     string
	visible bool
	open    func(string) error
	log     *logrus.Entry
}

// NewBrowser returns a hidden window for url. A nil opener uses open-golang.
func NewBrowser(url string, opener func(string) error, log *logrus.Entry) *Browser {
	if opener == nil {
		opener = open.Run
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Browser{url: url, open: opener, log: log.WithField("component", "window")}
}

// Headless tracks visibility without opening anything.
func Headless() *Browser {
	return NewBrowser("", func(string) error { return nil }, nil)
}

// Toggle hides a visible window, otherwise opens it.
func (b *Browser) Toggle() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.visible {
		b.visible = false
		b.log.Debug("window hidden")
		return nil
	}
	if b.url != "" {
		if err := b.open(b.url); err != nil {
			return err
		}
	}
	b.visible = true
	b.log.Debug("window shown")
	return nil
}

func (b *Browser) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Show opens the window unconditionally, used by the tray "Open" item.
func (b *Browser) Show() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.url != "" {
		if err := b.open(b.url); err != nil {
			return err
		}
	}
	b.visible = true
	return nil
}
