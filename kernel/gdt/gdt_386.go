package gdt

// flush loads GDTR from ptr via LGDT, then reloads every segment
// register so the CPU actually starts using the new descriptors.
func flush(ptr *pointer)

// loadTSS loads the task register (LTR) with the given selector.
func loadTSS(selector uint16)
