// Package vmm is the page-table manager: it creates and destroys
// address spaces, reads and writes mappings within them, and flushes
// the TLB at the right granularity. Two wire formats exist — legacy
// 2-level (1024x1024, 32-bit entries) and PAE 3-level (4x512x512,
// 64-bit entries, needed for the NX bit and frames at or above 4 GiB)
// — chosen once at boot and hidden behind one AddressSpace API so
// nothing above this layer needs to know which format is active.
package vmm

// Flags is a format-independent page mapping permission/attribute set.
// Each concrete format (legacy, PAE) encodes these into its own native
// entry width and masks off bits the CPU doesn't support (NX without
// the extended feature bit, Global without PGE); unsupported bits are
// never written into a live entry.
type Flags uint32

const (
	FlagPresent Flags = 1 << iota
	FlagWritable
	FlagUser
	FlagWriteThrough
	FlagCacheDisable
	FlagAccessed
	FlagDirty
	FlagGlobal
	// FlagNoExecute only has a physical encoding under PAE (the legacy
	// 32-bit entry format has no room for it); Map silently drops it
	// when the active format or CPU cannot represent it.
	FlagNoExecute
)

// Has reports whether every bit in want is set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }
