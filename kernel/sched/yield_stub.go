//go:build !386

package sched

// raiseContextSwitch has no hosted equivalent; tests exercise the
// blocking primitives by substituting yieldFn.
func raiseContextSwitch() {
	panic("sched: context-switch interrupt on a hosted build")
}
