// Package hal exposes the slice of hardware-abstraction surface the
// core depends on: typed access to the boot command line. The full
// device-probing HAL (console/tty auto-detection, font/logo selection)
// belongs to the out-of-scope driver collaborators and is not
// reproduced here.
package hal

import "aasvogel/kernel/hal/multiboot"

// cmdLine is parsed lazily from the raw Multiboot2 command line string
// on first access, then cached.
var cmdLine map[string]string

// tokens parses the raw command line into "key=value" and bare-token
// pairs. A bare token ("no_pae") maps a key to itself so BoolFlag can
// treat presence as true.
func tokens() map[string]string {
	if cmdLine != nil {
		return cmdLine
	}
	cmdLine = make(map[string]string)

	raw := multiboot.CommandLine()
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i < len(raw) && raw[i] != ' ' {
			continue
		}
		if i > start {
			field := raw[start:i]
			eq := -1
			for j := 0; j < len(field); j++ {
				if field[j] == '=' {
					eq = j
					break
				}
			}
			if eq >= 0 {
				cmdLine[field[:eq]] = field[eq+1:]
			} else {
				cmdLine[field] = field
			}
		}
		start = i + 1
	}
	return cmdLine
}

// BoolFlag reports whether a bare boot command-line token (e.g.
// "preinit_serial", "no_pae", "no_nx") is present.
func BoolFlag(name string) bool {
	_, ok := tokens()[name]
	return ok
}

// IntFlag returns the integer value of a "name=N" boot command-line
// token, or def if the token is absent or not a valid decimal integer.
// Used for klog_console_level, klog_serial_level, klog_serial_port,
// and kernel_gdb_serial.
func IntFlag(name string, def int) int {
	v, ok := tokens()[name]
	if !ok {
		return def
	}
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return def
		}
		n = n*10 + int(v[i]-'0')
	}
	return n
}

// Reset clears the cached command-line parse. Exposed for tests that
// need to re-parse after changing the underlying Multiboot info.
func Reset() {
	cmdLine = nil
}
