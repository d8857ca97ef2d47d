package kbstore

import "testing"

func TestGenerateID(t *testing.T) {
	id := GenerateID(3, "AME", 1, 7)
	if id != "S3_AME_M1_007" {
		t.Errorf("unexpected id: %s", id)
	}
}

func TestParseID(t *testing.T) {
	sem, subject, module, err := ParseID("S3_AME_M1_007")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sem != 3 || subject != "AME" || module != 1 {
		t.Errorf("got sem=%d subject=%q module=%d", sem, subject, module)
	}
}

func TestParseID_SubjectWithUnderscores(t *testing.T) {
	sem, subject, module, err := ParseID("S5_DATA_STRUCTURES_M2_014")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sem != 5 || subject != "DATA_STRUCTURES" || module != 2 {
		t.Errorf("got sem=%d subject=%q module=%d", sem, subject, module)
	}
}

func TestParseID_RoundTrip(t *testing.T) {
	id := GenerateID(8, "OS_LAB", 4, 120)
	sem, subject, module, err := ParseID(id)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sem != 8 || subject != "OS_LAB" || module != 4 {
		t.Errorf("round trip lost components: sem=%d subject=%q module=%d", sem, subject, module)
	}
}

func TestParseID_Malformed(t *testing.T) {
	for _, id := range []string{
		"",
		"S3_AME",
		"X3_AME_M1_001",
		"S3_AME_X1_001",
		"Sx_AME_M1_001",
		"S3_AME_Mx_001",
		"S3__M1_001",
	} {
		if _, _, _, err := ParseID(id); err == nil {
			t.Errorf("expected error for %q", id)
		}
	}
}

func TestSemesterRoman(t *testing.T) {
	roman, err := SemesterRoman(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roman != "IV" {
		t.Errorf("expected IV, got %s", roman)
	}
	if _, err := SemesterRoman(9); err == nil {
		t.Error("expected error for semester 9")
	}
	if _, err := SemesterRoman(0); err == nil {
		t.Error("expected error for semester 0")
	}
}

func TestNextSerial(t *testing.T) {
	if got := nextSerial(nil); got != 1 {
		t.Errorf("empty file should start at 1, got %d", got)
	}
	got := nextSerial([]string{"S3_AME_M1_001", "S3_AME_M1_005", "S3_AME_M1_003"})
	if got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}

func TestNextSerial_SkipsUnparseable(t *testing.T) {
	got := nextSerial([]string{"garbage", "S3_AME_M1_002", "also_bad_xx"})
	if got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}
