// Package console drives the VGA text-mode framebuffer at physical
// address 0xB8000. It is the only video driver promoted into the
// kernel core: the boot trampoline's error path and the panic path
// both need a place to put output before, or in place of, any real
// driver framework existing.
package console

import (
	"reflect"
	"unsafe"

	"aasvogel/kernel/cpu"
)

// Out adapts the package-level Write into an io.Writer value so
// callers that need to hand the console to io.MultiWriter (the panic
// path, chiefly) don't have to wrap it themselves.
var Out consoleWriter

type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) { return Write(p) }

// Width and Height are fixed by the VGA text mode this kernel targets;
// nothing in this package supports other mode geometries.
const (
	Width  = 80
	Height = 25

	fbPhysAddr = 0xB8000

	crtIndexPort = 0x3D4
	crtDataPort  = 0x3D5
	cursorLowReg = 0x0F
	cursorHiReg  = 0x0E
)

// Color is one of the 16 EGA palette indices a cell's attribute byte
// can name as foreground or background.
type Color uint8

const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGrey
	Grey
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	White
)

// portOutb indirects through cpu.Outb so cursor positioning can be
// exercised from host tests, matching the mock-function-variable style
// used throughout this kernel.
var portOutb = cpu.Outb

var (
	fb   []uint16
	fg   = LightGrey
	bg   = Black
	curX int
	curY int
)

// Init maps the framebuffer and puts the console in a known state:
// cleared, default colors, cursor at the origin.
func Init() {
	if fb == nil {
		fb = *(*[]uint16)(unsafe.Pointer(&reflect.SliceHeader{
			Data: fbPhysAddr,
			Len:  Width * Height,
			Cap:  Width * Height,
		}))
	}
	fg, bg = LightGrey, Black
	curX, curY = 0, 0
	Clear()
	moveCursor()
}

// SetColors changes the foreground/background used by future Write
// and WriteAt calls. It does not repaint existing cells.
func SetColors(foreground, background Color) {
	fg, bg = foreground, background
}

// cellAttr packs fg/bg into the VGA text attribute byte.
func cellAttr() uint16 {
	return uint16(bg)<<4 | uint16(fg)
}

// Clear fills the whole screen with a space cell in the current
// colors and homes the cursor.
func Clear() {
	clr := cellAttr()<<8 | uint16(' ')
	for i := range fb {
		fb[i] = clr
	}
	curX, curY = 0, 0
}

// WriteAt writes a single character cell at (x, y) in the current
// colors. Out-of-bounds coordinates are silently ignored.
func WriteAt(ch byte, x, y int) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	fb[y*Width+x] = cellAttr()<<8 | uint16(ch)
}

// Write implements io.Writer over the console at the cursor position,
// advancing the cursor and scrolling as needed. \n moves to the start
// of the next line.
func Write(p []byte) (int, error) {
	for _, c := range p {
		if curY >= Height {
			scroll()
			curY = Height - 1
		}
		if c == '\n' {
			curX = 0
			curY++
			continue
		}
		WriteAt(c, curX, curY)
		curX++
		if curX >= Width {
			curX = 0
			curY++
		}
	}
	if curY >= Height {
		scroll()
		curY = Height - 1
	}
	moveCursor()
	return len(p), nil
}

func scroll() {
	copy(fb, fb[Width:])
	clr := cellAttr()<<8 | uint16(' ')
	for i := len(fb) - Width; i < len(fb); i++ {
		fb[i] = clr
	}
}

func moveCursor() {
	pos := uint16(curY*Width + curX)
	portOutb(crtIndexPort, cursorLowReg)
	portOutb(crtDataPort, byte(pos&0xff))
	portOutb(crtIndexPort, cursorHiReg)
	portOutb(crtDataPort, byte(pos>>8))
}

// HideCursor moves the hardware cursor off-screen; the CRT controller
// has no dedicated disable bit.
func HideCursor() {
	pos := uint16(Width * Height)
	portOutb(crtIndexPort, cursorLowReg)
	portOutb(crtDataPort, byte(pos&0xff))
	portOutb(crtIndexPort, cursorHiReg)
	portOutb(crtDataPort, byte(pos>>8))
}

// EnterCrashMode switches the console to the crash presentation:
// white on red, cleared, cursor hidden. The caller writes the crash
// report through Write immediately afterward.
func EnterCrashMode() {
	SetColors(White, Red)
	Clear()
	HideCursor()
}
