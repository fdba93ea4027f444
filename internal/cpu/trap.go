package cpu

// ivtWord returns the handler address stored at IVT slot vec. The IVT
// occupies the first 256 physical words regardless of the faulting core's
// translation state, matching firmware convention for a fixed boot table.
func (c *Core) ivtWord(vec uint32) uint32 {
	return c.Bus.ReadWord(vec * 4)
}

// trap saves the interrupted context and switches to enterMode at the
// handler named by the IVT. sys, exceptions, and TLB misses enter kernel
// mode; device interrupts and IPI enter interrupt mode — the two trap
// sources bank a different r31 alias (ksp vs isp) and return through
// different rf* variants.
func (c *Core) trap(vec uint32, enterMode Mode) {
	c.CR.EPC = c.PC
	c.CR.EFG = c.CR.FLG
	c.savedMode = c.Mode
	c.Mode = enterMode
	c.PC = c.ivtWord(vec)
	c.Asleep = false
}

// ReturnFromException implements rfe: resume at epc in user mode, flags
// left exactly as the handler set them. Used by sys/exception/TLB-user-
// miss handlers returning to the userland code they interrupted.
func (c *Core) ReturnFromException() {
	c.PC = c.CR.EPC
	c.Mode = ModeUser
}

// ReturnFromInterrupt implements rfi: resume at epc with flg restored
// from efg, back in whichever mode (user or kernel) the interrupt
// preempted.
func (c *Core) ReturnFromInterrupt() {
	c.PC = c.CR.EPC
	c.CR.FLG = c.CR.EFG
	c.Mode = c.savedMode
}

// ReturnFromTrap implements rft: resume at epc with flg restored from
// efg, back in kernel mode — used when a kernel TLB-miss handler resumes
// the kernel routine that faulted.
func (c *Core) ReturnFromTrap() {
	c.PC = c.CR.EPC
	c.CR.FLG = c.CR.EFG
	c.Mode = ModeKernel
}
