package standing

import (
	"bytes"
	"strings"
	"testing"
)

const admissionSample = `BINUSIAN ID;NIM;NAME;PROGRAM;STATUS;ADMIT TERM;PDPT INTAKE;STUDENT TYPE;TOTAL SCU
BN001;2401001;Alice;Computer Science;AC;2020.11;2020.11;Regular;45
BN002;2401002;Bob;Fashion;LA;2021.21;-;Regular;30
BN003;2401003;Carol;Computer Science;GR;2019.11;-;Regular;146
BN004;2401004;Dave;Computer Science;AC;2022.11;-;Regular;
`

func TestParseAdmissionCSV(t *testing.T) {
	records, err := ParseAdmissionCSV(strings.NewReader(admissionSample))
	if err != nil {
		t.Fatalf("ParseAdmissionCSV: %v", err)
	}

	// Carol graduated; only AC and LA rows survive.
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	alice := records[0]
	if alice.StudentID != 2401001 || alice.ProgramStatus != StatusActive {
		t.Errorf("unexpected record: %+v", alice)
	}
	if alice.AdmitTerm != (Term{2020, 1, 1}) {
		t.Errorf("admit term = %+v", alice.AdmitTerm)
	}
	if !alice.HasPDPT() || *alice.PDPTIntake != (Term{2020, 1, 1}) {
		t.Errorf("pdpt intake = %+v", alice.PDPTIntake)
	}
	if alice.TotalSCU == nil || *alice.TotalSCU != 45 {
		t.Errorf("total SCU = %v", alice.TotalSCU)
	}

	bob := records[1]
	if bob.ProgramStatus != StatusLeaveOfAbsence {
		t.Errorf("Bob status = %q", bob.ProgramStatus)
	}
	if bob.HasPDPT() {
		t.Error("the - sentinel means no PDPT intake")
	}
	// PDPT "2021.21" would be semester 1 period 2; the binus admit term
	// "2021.21" is semester 2 period 1.
	if bob.AdmitTerm != (Term{2021, 2, 1}) {
		t.Errorf("Bob admit term = %+v", bob.AdmitTerm)
	}

	dave := records[2]
	if dave.TotalSCU != nil {
		t.Error("an empty SCU column stays nil")
	}
}

func TestParseAdmissionCSVMissingColumn(t *testing.T) {
	input := "NIM;NAME\n1;x\n"
	if _, err := ParseAdmissionCSV(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestParseAdmissionCSVBadTerm(t *testing.T) {
	input := strings.Replace(admissionSample, "2020.11;2020.11", "2020.99;2020.11", 1)
	if _, err := ParseAdmissionCSV(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for malformed admit term")
	}
}

func TestMarshalAdmissionCSVRoundTrip(t *testing.T) {
	records, err := ParseAdmissionCSV(strings.NewReader(admissionSample))
	if err != nil {
		t.Fatalf("ParseAdmissionCSV: %v", err)
	}

	blob, err := MarshalAdmissionCSV(records)
	if err != nil {
		t.Fatalf("MarshalAdmissionCSV: %v", err)
	}
	again, err := ParseAdmissionCSV(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(again) != len(records) {
		t.Fatalf("round trip changed record count: %d != %d", len(again), len(records))
	}
	for i := range records {
		if again[i].StudentID != records[i].StudentID || again[i].AdmitTerm != records[i].AdmitTerm {
			t.Errorf("record %d changed: %+v != %+v", i, again[i], records[i])
		}
		if (again[i].PDPTIntake == nil) != (records[i].PDPTIntake == nil) {
			t.Errorf("record %d PDPT presence changed", i)
		}
	}
}
