package attendance

import (
	"bytes"
	"strings"
	"testing"

	"github.com/BrandonSalimTheHuman/SASC/utils"
)

const aggregatedSample = `NIM;NAME;MAJOR;COURSE CODE;COURSE NAME;CLASS;COMPONENT;SKS;TOTAL SESSION;SESSION DONE;TOTAL ABSENCE;MAX ABSENCE
2501001;Alice;Computer Science;COMP6047;Algorithm Design;LA01;LEC;4;26;10;2;7
2501002;Bob;Computer Science;COMP6047;Algorithm Design;LA01;LAB;4;26;10;5;7
`

const sessionLevelSample = `NIM;NAME;MAJOR;COURSE CODE;COURSE NAME;CLASS;COMPONENT;SKS;TOTAL SESSION;SESSION DONE;MAX ABSENCE;PRESENCE
2501001;Alice;Computer Science;COMP6047;Algorithm Design;LA01;LEC;4;26;1;7;P
2501001;Alice;Computer Science;COMP6047;Algorithm Design;LA01;LEC;4;26;1;7;A
2501001;Alice;Computer Science;COMP6047;Algorithm Design;LA01;LEC;4;26;1;7;P
`

func TestParseCSVAggregated(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(aggregatedSample))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if table.Schema != AggregatedSchema {
		t.Fatalf("schema = %q, want %q", table.Schema, AggregatedSchema)
	}
	if len(table.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(table.Records))
	}

	r := table.Records[0]
	if r.StudentID != 2501001 || r.StudentName != "Alice" || r.Component != "LEC" {
		t.Errorf("unexpected first record: %+v", r)
	}
	if r.TotalSession != 26 || r.SessionDone != 10 || r.TotalAbsence != 2 || r.MaxAbsence != 7 {
		t.Errorf("unexpected counters: %+v", r)
	}
	if r.Present != nil {
		t.Error("aggregated rows must not carry a presence flag")
	}
}

func TestParseCSVSessionLevel(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(sessionLevelSample))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if table.Schema != SessionLevelSchema {
		t.Fatalf("schema = %q, want %q", table.Schema, SessionLevelSchema)
	}
	if len(table.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(table.Records))
	}
	if table.Records[1].PresenceCode != "A" {
		t.Errorf("presence code = %q, want A", table.Records[1].PresenceCode)
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	input := "NIM;NAME;MAJOR\n1;x;y\n"
	_, err := ParseCSV(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if kind, ok := utils.KindOf(err); !ok || kind != utils.KindInvalidData {
		t.Errorf("error kind = %v, want invalid_data", kind)
	}
}

func TestParseCSVBadNumber(t *testing.T) {
	input := strings.Replace(aggregatedSample, ";26;", ";abc;", 1)
	if _, err := ParseCSV(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for non-numeric field")
	}
}

func TestMarshalCSVRoundTrip(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(aggregatedSample))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	blob, err := table.MarshalCSV()
	if err != nil {
		t.Fatalf("MarshalCSV: %v", err)
	}
	again, err := ParseCSV(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(again.Records) != len(table.Records) {
		t.Fatalf("round trip changed row count: %d != %d", len(again.Records), len(table.Records))
	}
	for i := range table.Records {
		if again.Records[i] != table.Records[i] {
			t.Errorf("row %d changed: %+v != %+v", i, again.Records[i], table.Records[i])
		}
	}

	// A second marshal of the same rows is byte-identical.
	blob2, err := again.MarshalCSV()
	if err != nil {
		t.Fatalf("MarshalCSV: %v", err)
	}
	if !bytes.Equal(blob, blob2) {
		t.Error("marshal is not deterministic")
	}
}
