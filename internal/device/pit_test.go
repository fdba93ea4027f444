package device

import "testing"

func TestPITFiresAfterInterval(t *testing.T) {
	p := NewPIT(0x300)
	p.WriteWord(0, 4)
	for i := 0; i < 3; i++ {
		p.Tick()
		if p.Pending() != 0 {
			t.Fatalf("PIT fired early at tick %d", i)
		}
	}
	p.Tick()
	if p.Pending()&IRQPIT == 0 {
		t.Error("expected IRQPIT after 4 ticks")
	}
}

func TestPITPendingClearsOnRead(t *testing.T) {
	p := NewPIT(0x300)
	p.WriteWord(0, 1)
	p.Tick()
	if p.Pending() == 0 {
		t.Fatal("expected pending after interval elapses")
	}
	if p.Pending() != 0 {
		t.Error("Pending should clear after being observed once")
	}
}

func TestPITZeroIntervalNeverFires(t *testing.T) {
	p := NewPIT(0x300)
	for i := 0; i < 100; i++ {
		p.Tick()
	}
	if p.Pending() != 0 {
		t.Error("interval 0 should disable the timer")
	}
}

func TestPITReloadsAfterFiring(t *testing.T) {
	p := NewPIT(0x300)
	p.WriteWord(0, 2)
	p.Tick()
	p.Tick()
	p.Pending() // consume first fire
	p.Tick()
	if p.Pending() != 0 {
		t.Fatal("should not fire again after only 1 of 2 reloaded ticks")
	}
	p.Tick()
	if p.Pending()&IRQPIT == 0 {
		t.Error("expected PIT to reload and fire again after a full interval")
	}
}
