// Command qemumon is a thin wrapper around a running QEMU instance's
// monitor socket: the host-side counterpart to the kernel_gdb_serial
// boot option. It puts the controlling terminal into raw mode, relays
// keystrokes to the monitor socket, and echoes the monitor's output
// back, the same stdin-pump shape as IntuitionEngine's terminal host,
// adapted from a polling MMIO device to a blocking unix socket.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func main() {
	sockPath := flag.String("monitor", "", "path to QEMU's unix monitor socket (-monitor unix:<path>,server)")
	flag.Parse()

	if *sockPath == "" {
		fmt.Fprintln(os.Stderr, "qemumon: -monitor is required")
		os.Exit(1)
	}

	if err := run(*sockPath, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "qemumon: %v\n", err)
		os.Exit(1)
	}
}

func run(sockPath string, stdin *os.File, stdout *os.File) error {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return fmt.Errorf("dialing monitor socket: %w", err)
	}
	defer conn.Close()

	fd := int(stdin.Fd())
	if _, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err != nil {
		return fmt.Errorf("querying terminal size: %w", err)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		term.Restore(fd, oldState)
		os.Exit(0)
	}()

	return <-relay(conn, stdin, stdout)
}

// relay pumps bytes in both directions between sock and the
// stdin/stdout pair, returning a channel that receives the first
// error from either direction (typically io.EOF when the monitor
// socket or the terminal closes).
func relay(sock io.ReadWriter, stdin io.Reader, stdout io.Writer) <-chan error {
	errCh := make(chan error, 2)
	go func() { _, err := io.Copy(sock, stdin); errCh <- err }()
	go func() { _, err := io.Copy(stdout, sock); errCh <- err }()
	return errCh
}
