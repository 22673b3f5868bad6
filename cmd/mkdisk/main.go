// Command mkdisk assembles a boot test image description: a small
// manifest pairing the kernel ELF, an optional initrd module list, and
// a command line, the inputs of a QEMU -kernel/-initrd/-append
// invocation. It never touches the kernel image itself; it is
// host-side developer tooling only.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

// Image is the manifest mkdisk writes: the kernel path, module paths,
// command line and serial log path of one QEMU invocation.
type Image struct {
	Kernel    string   `json:"kernel"`
	Modules   []string `json:"modules,omitempty"`
	CmdLine   string   `json:"cmdline,omitempty"`
	SerialLog string   `json:"serial_log,omitempty"`
}

func main() {
	log := newLogger()
	root := newRootCmd(log)
	if err := root.Execute(); err != nil {
		log.Error(err, "mkdisk failed")
		os.Exit(1)
	}
}

func newLogger() logr.Logger {
	return logr.New(stderrSink{})
}

func newRootCmd(log logr.Logger) *cobra.Command {
	var out string
	var modules []string
	var cmdline string
	var serialLog string

	root := &cobra.Command{
		Use:   "mkdisk <kernel-elf>",
		Short: "Assemble a boot test image manifest for qemumon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img := Image{
				Kernel:    args[0],
				Modules:   modules,
				CmdLine:   cmdline,
				SerialLog: serialLog,
			}
			return writeManifest(log, img, out)
		},
	}

	root.Flags().StringVarP(&out, "out", "o", "disk.json", "manifest output path")
	root.Flags().StringArrayVarP(&modules, "module", "m", nil, "module file to include (repeatable)")
	root.Flags().StringVar(&cmdline, "cmdline", "", "multiboot command line to embed")
	root.Flags().StringVar(&serialLog, "serial-log", "", "COM1 output log path to record in the manifest")

	return root
}

func writeManifest(log logr.Logger, img Image, out string) error {
	if _, err := os.Stat(img.Kernel); err != nil {
		return fmt.Errorf("kernel image %q: %w", img.Kernel, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating manifest %q: %w", out, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(img); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	log.Info("wrote boot manifest", "path", out, "kernel", img.Kernel, "modules", len(img.Modules))
	return nil
}
