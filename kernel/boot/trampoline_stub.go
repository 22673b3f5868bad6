//go:build !386

package boot

// activate has no hosted equivalent; tests substitute activateHook
// before calling Trampoline.Activate.
func activate(tablePhysAddr uint32, enablePAE uint32) {
	panic("boot: paging activation on a hosted build")
}
