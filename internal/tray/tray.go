// Package tray shows air-server's connection status in the system tray
// using getlantern/systray.
package tray

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray manages the system tray icon and menu
type Tray struct {
	title string

	mu          sync.Mutex
	ready       bool
	connections int
	status      *systray.MenuItem
	quit        *systray.MenuItem

	onQuit func()
	quitCh chan struct{}
}

// New creates a new system tray. onQuit runs when the user picks Quit.
func New(title string, onQuit func()) *Tray {
	return &Tray{
		title:  title,
		onQuit: onQuit,
		quitCh: make(chan struct{}),
	}
}

// Run starts the tray event loop. It blocks until Stop and must be called
// from the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() { close(t.quitCh) })
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// SetConnections updates the icon, tooltip and status line. It may be
// called before the tray is ready.
func (t *Tray) SetConnections(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connections = n
	if t.ready {
		t.render()
	}
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle(t.title)

	t.mu.Lock()
	t.status = systray.AddMenuItem("", "")
	t.status.Disable()
	systray.AddSeparator()
	t.quit = systray.AddMenuItem("Quit", "Stop "+t.title)
	t.ready = true
	t.render()
	quit := t.quit
	t.mu.Unlock()

	go func() {
		select {
		case <-quit.ClickedCh:
			if t.onQuit != nil {
				t.onQuit()
			}
		case <-t.quitCh:
		}
	}()
}

// render must be called with t.mu held.
func (t *Tray) render() {
	text := statusText(t.connections)
	systray.SetIcon(icon(t.connections > 0))
	systray.SetTooltip(t.title + ": " + text)
	t.status.SetTitle(text)
}

func statusText(n int) string {
	switch n {
	case 0:
		return "Waiting for client"
	case 1:
		return "1 client connected"
	default:
		return fmt.Sprintf("%d clients connected (input may interleave)", n)
	}
}

const iconSize = 16

// icon returns a 16x16 32-bit ICO: a filled square, green while a client
// is connected and grey otherwise.
func icon(connected bool) []byte {
	const (
		headerLen = 6 + 16
		dibLen    = 40
		pixelLen  = iconSize * iconSize * 4
		maskLen   = iconSize * 4 // 1 bit per pixel, rows padded to 32 bits
		imageLen  = dibLen + pixelLen + maskLen
	)

	b := make([]byte, headerLen+imageLen)
	le := binary.LittleEndian

	// ICONDIR
	le.PutUint16(b[2:], 1) // type: icon
	le.PutUint16(b[4:], 1) // count

	// ICONDIRENTRY
	b[6] = iconSize
	b[7] = iconSize
	le.PutUint16(b[10:], 1)  // planes
	le.PutUint16(b[12:], 32) // bpp
	le.PutUint32(b[14:], imageLen)
	le.PutUint32(b[18:], headerLen)

	// BITMAPINFOHEADER; height is doubled to cover the AND mask
	dib := b[headerLen:]
	le.PutUint32(dib[0:], dibLen)
	le.PutUint32(dib[4:], iconSize)
	le.PutUint32(dib[8:], iconSize*2)
	le.PutUint16(dib[12:], 1)
	le.PutUint16(dib[14:], 32)
	le.PutUint32(dib[20:], pixelLen+maskLen)

	// BGRA pixels, with a one pixel transparent border
	bgra := [4]byte{0x80, 0x80, 0x80, 0xff}
	if connected {
		bgra = [4]byte{0x40, 0xb0, 0x30, 0xff}
	}
	pixels := dib[dibLen : dibLen+pixelLen]
	for y := 1; y < iconSize-1; y++ {
		for x := 1; x < iconSize-1; x++ {
			copy(pixels[(y*iconSize+x)*4:], bgra[:])
		}
	}
	return b
}
