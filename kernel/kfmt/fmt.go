// Package kfmt implements a minimal, allocation-free formatted I/O
// facility that can be used both before and after the Go runtime has
// been fully bootstrapped (see kernel/goruntime). It intentionally
// avoids the standard fmt package: fmt relies on reflection and the
// heap allocator, neither of which are available while the kernel is
// still bringing up its own memory manager.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize bounds the scratch buffer used while rendering integers;
// it must be large enough for a 64-bit value in base 8 plus padding.
const numBufSize = 32

var (
	msgMissingArg = []byte("(MISSING)")
	msgBadArgType = []byte("%!(WRONGTYPE)")
	msgNoVerb     = []byte("%!(NOVERB)")
	msgExtraArg   = []byte("%!(EXTRA)")
	msgTrue       = []byte("true")
	msgFalse      = []byte("false")

	numScratch [numBufSize]byte

	// oneByte is a shared single-byte buffer used to avoid the
	// allocation that slicing a string literal would otherwise trigger.
	oneByte = []byte{' '}

	// earlyRing buffers Printf output generated before an output sink
	// has been installed (e.g. before the console driver is up).
	earlyRing ringBuffer

	// sink is where Printf sends output once installed. While nil,
	// output accumulates in earlyRing.
	sink io.Writer
)

// SetOutputSink directs future Printf calls to w and flushes anything
// accumulated in the early ring buffer to it.
func SetOutputSink(w io.Writer) {
	sink = w
	if w != nil {
		io.Copy(w, &earlyRing)
	}
}

// GetOutputSink returns the currently installed output sink, or nil if
// none has been installed yet.
func GetOutputSink() io.Writer {
	return sink
}

// Printf renders format with args and writes the result to the
// currently installed output sink (or buffers it if none is set yet).
//
// Supported verbs: %s (string/[]byte), %d/%o/%x (any built-in integer
// type), %t (bool), %c (byte/rune), %% (literal percent). An optional
// decimal width may precede the verb, e.g. %4d. String and base-10
// values are space-padded; base-8/16 values are zero-padded.
//
// Printf never allocates: pointers (%p) and arbitrary Stringers are
// deliberately unsupported since printing them would require the
// reflect package.
func Printf(format string, args ...interface{}) {
	Fprintf(sink, format, args...)
}

// Fprintf behaves like Printf but writes to w instead of the installed
// sink. Passing a nil w buffers into the early ring buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex         int
		litStart, cursor int
		width            int
		n                = len(format)
	)

	flushLiteral := func(from, to int) {
		for i := from; i < to; i++ {
			oneByte[0] = format[i]
			write(w, oneByte)
		}
	}

	for cursor < n {
		if format[cursor] != '%' {
			cursor++
			continue
		}

		flushLiteral(litStart, cursor)

		width = 0
		cursor++
	scanVerb:
		for ; cursor < n; cursor++ {
			ch := format[cursor]
			switch {
			case ch == '%':
				oneByte[0] = '%'
				write(w, oneByte)
				break scanVerb
			case ch >= '0' && ch <= '9':
				width = width*10 + int(ch-'0')
				continue
			case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 't' || ch == 'c':
				if argIndex >= len(args) {
					write(w, msgMissingArg)
					break scanVerb
				}
				switch ch {
				case 'o':
					writeInt(w, args[argIndex], 8, width)
				case 'd':
					writeInt(w, args[argIndex], 10, width)
				case 'x':
					writeInt(w, args[argIndex], 16, width)
				case 's':
					writeString(w, args[argIndex], width)
				case 't':
					writeBool(w, args[argIndex])
				case 'c':
					writeChar(w, args[argIndex])
				}
				argIndex++
				break scanVerb
			default:
				write(w, msgNoVerb)
				break scanVerb
			}
		}
		litStart, cursor = cursor+1, cursor+1
	}

	flushLiteral(litStart, cursor)

	for ; argIndex < len(args); argIndex++ {
		write(w, msgExtraArg)
	}
}

func writeBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	if !ok {
		write(w, msgBadArgType)
		return
	}
	if b {
		write(w, msgTrue)
	} else {
		write(w, msgFalse)
	}
}

func writeChar(w io.Writer, v interface{}) {
	switch c := v.(type) {
	case byte:
		oneByte[0] = c
		write(w, oneByte)
	case rune:
		oneByte[0] = byte(c)
		write(w, oneByte)
	default:
		write(w, msgBadArgType)
	}
}

func writeString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		pad(w, ' ', width-len(s))
		for i := 0; i < len(s); i++ {
			oneByte[0] = s[i]
			write(w, oneByte)
		}
	case []byte:
		pad(w, ' ', width-len(s))
		write(w, s)
	default:
		write(w, msgBadArgType)
	}
}

func pad(w io.Writer, ch byte, count int) {
	oneByte[0] = ch
	for i := 0; i < count; i++ {
		write(w, oneByte)
	}
}

// writeInt renders v (any built-in integer type) in the given base,
// left-padded to width.
func writeInt(w io.Writer, v interface{}, base, width int) {
	var (
		signed int64
		uval   uint64
		divBy  uint64
		padCh  byte
	)

	if width >= numBufSize {
		width = numBufSize - 1
	}

	switch base {
	case 8:
		divBy, padCh = 8, '0'
	case 10:
		divBy, padCh = 10, ' '
	case 16:
		divBy, padCh = 16, '0'
	}

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uintptr:
		uval = uint64(t)
	case int8:
		signed = int64(t)
	case int16:
		signed = int64(t)
	case int32:
		signed = int64(t)
	case int64:
		signed = t
	case int:
		signed = int64(t)
	default:
		write(w, msgBadArgType)
		return
	}

	if signed < 0 {
		uval = uint64(-signed)
	} else if signed > 0 {
		uval = uint64(signed)
	}

	left, right := 0, 0
	for right < numBufSize {
		rem := uval % divBy
		if rem < 10 {
			numScratch[right] = byte(rem) + '0'
		} else {
			numScratch[right] = byte(rem-10) + 'a'
		}
		right++

		uval /= divBy
		if uval == 0 {
			break
		}
	}

	for ; right-left < width; right++ {
		numScratch[right] = padCh
	}

	if signed < 0 {
		end := right - 1
		for numScratch[end] == ' ' {
			end--
		}
		if end == right-1 {
			right++
		}
		numScratch[end+1] = '-'
	}

	end := right
	for right--; left < right; left, right = left+1, right-1 {
		numScratch[left], numScratch[right] = numScratch[right], numScratch[left]
	}

	write(w, numScratch[0:end])
}

// write hides p from escape analysis so that Printf/Fprintf do not
// trigger a heap allocation for the interface conversion when called
// before the allocator is available. The trick mirrors
// runtime.noescape in the standard library.
func write(w io.Writer, p []byte) {
	writeNoEscape(w, noEscape(unsafe.Pointer(&p)))
}

func writeNoEscape(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyRing.Write(p)
	}
}

//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
