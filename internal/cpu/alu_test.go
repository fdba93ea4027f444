package cpu

import "testing"

func TestComputeAddFlags(t *testing.T) {
	result, flags := Compute(AluAdd, 1, 1)
	if result != 2 {
		t.Errorf("1+1 = %d, want 2", result)
	}
	if flags&FlagZ != 0 || flags&FlagC != 0 {
		t.Errorf("unexpected flags %x for 1+1", flags)
	}

	result, flags = Compute(AluAdd, 0xFFFFFFFF, 1)
	if result != 0 {
		t.Errorf("overflow add result = %d, want 0", result)
	}
	if flags&FlagC == 0 || flags&FlagZ == 0 {
		t.Errorf("expected carry+zero flags, got %x", flags)
	}
}

func TestComputeSubBorrow(t *testing.T) {
	result, flags := Compute(AluSub, 3, 5)
	if int32(result) != -2 {
		t.Errorf("3-5 = %d, want -2", int32(result))
	}
	if flags&FlagC != 0 {
		t.Error("expected no carry (borrow occurred) for 3-5")
	}
	if flags&FlagN == 0 {
		t.Error("expected negative flag for 3-5")
	}
}

func TestComputeCmpDiscardsResultButSetsFlags(t *testing.T) {
	_, flags := Compute(AluCmp, 5, 5)
	if flags&FlagZ == 0 {
		t.Error("cmp of equal operands must set zero flag")
	}
}

func TestComputeShifts(t *testing.T) {
	if r, _ := Compute(AluLsl, 1, 4); r != 16 {
		t.Errorf("1<<4 = %d, want 16", r)
	}
	if r, _ := Compute(AluLsr, 16, 4); r != 1 {
		t.Errorf("16>>4 = %d, want 1", r)
	}
	if r, _ := Compute(AluRotr, 1, 1); r != 0x80000000 {
		t.Errorf("rotr(1,1) = %08x, want 80000000", r)
	}
}

func TestEvalCondSignedVsUnsigned(t *testing.T) {
	// l (signed less-than) reads N^V while bbe (unsigned below) reads C;
	// 1-2 is less-than in both senses, so both predicates hold.
	_, flags := Compute(AluSub, 1, 2) // 1 < 2, no overflow
	if !EvalCond(CondL, flags) {
		t.Error("expected l true for 1-2 (signed less-than)")
	}
	if !EvalCond(CondBBE, flags) {
		t.Error("expected bbe (unsigned below) true for 1-2 borrow")
	}
}
