// Package hostclip implements the monitor.HostClipboard port against
// the real OS clipboard: text via atotto/clipboard (shells out to the
// platform clipboard utility), images via golang.design/x/clipboard
// (cgo-backed, normalizes to PNG on read).
package hostclip

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	xclipboard "golang.design/x/clipboard"
)

const (
	utiText  = "public.utf8-plain-text"
	utiImage = "public.png"
)

// ErrUnavailable indicates the underlying platform clipboard backend
// could not be initialized (e.g. headless environment, missing X11/
// Wayland clipboard utility).
var ErrUnavailable = errors.New("hostclip: platform clipboard backend unavailable")

// Clipboard adapts the host OS clipboard to monitor.HostClipboard. It
// has no native change-counter API to read, so it derives one itself:
// a content hash is taken on every poll and the counter bumps whenever
// the hash differs from the last observed value.
type Clipboard struct {
	mu         sync.Mutex
	counter    int64
	lastHash   [32]byte
	haveHash   bool
	imageReady bool
}

// New initializes the platform clipboard backend. Returns ErrUnavailable
// wrapping the underlying error if the environment has no usable
// clipboard at all (common in headless CI). Image support alone being
// unavailable is not fatal: the backend degrades to text-only.
func New() (*Clipboard, error) {
	c := &Clipboard{}

	if err := xclipboard.Init(); err != nil {
		c.imageReady = false
	} else {
		c.imageReady = true
	}

	if _, err := clipboard.ReadAll(); err != nil && !c.imageReady {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, nil
}

// ChangeCounter hashes the current text and image content together and
// bumps an internal monotonic counter whenever that hash changes.
func (c *Clipboard) ChangeCounter() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := sha256.New()

	if text, err := clipboard.ReadAll(); err == nil {
		h.Write([]byte(text))
	}
	if c.imageReady {
		if img := xclipboard.Read(xclipboard.FmtImage); img != nil {
			h.Write(img)
		}
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))

	if !c.haveHash || sum != c.lastHash {
		c.counter++
		c.lastHash = sum
		c.haveHash = true
	}
	return c.counter, nil
}

// AvailableTypes reports which of the two representations this backend
// currently has content for, in host-native-looking tag tokens.
func (c *Clipboard) AvailableTypes() ([]string, error) {
	var types []string
	if text, err := clipboard.ReadAll(); err == nil && text != "" {
		types = append(types, utiText)
	}
	if c.imageReady {
		if img := xclipboard.Read(xclipboard.FmtImage); len(img) > 0 {
			types = append(types, utiImage)
		}
	}
	return types, nil
}

// ReadText returns the clipboard's text content.
func (c *Clipboard) ReadText() (string, bool, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", false, err
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// ReadImage returns the clipboard's image content, already normalized
// to PNG by the underlying backend, tagged as public.png.
func (c *Clipboard) ReadImage() ([]byte, string, bool, error) {
	if !c.imageReady {
		return nil, "", false, nil
	}
	img := xclipboard.Read(xclipboard.FmtImage)
	if len(img) == 0 {
		return nil, "", false, nil
	}
	return img, utiImage, true, nil
}
