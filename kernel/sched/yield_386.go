package sched

// raiseContextSwitch executes INT 0x90 (irq.ContextSwitch's vector),
// handing control to yieldHandler via the normal IDT dispatch path.
// Implemented in yield_386.s.
func raiseContextSwitch()
