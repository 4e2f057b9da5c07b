package standing

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/utils"

	"golang.org/x/text/encoding/charmap"
)

// Program statuses retained at ingestion. Everything else is filtered out.
const (
	StatusActive         = "AC"
	StatusLeaveOfAbsence = "LA"
)

// AdmissionRecord is one student's admission row with both calendar intakes.
type AdmissionRecord struct {
	ExternalID    string `json:"binusian_id"`
	StudentID     int    `json:"nim"`
	FullName      string `json:"name"`
	Program       string `json:"program"`
	ProgramStatus string `json:"status"`
	AdmitTerm     Term   `json:"admit_term"`
	PDPTIntake    *Term  `json:"pdpt_intake,omitempty"`
	StudentType   string `json:"student_type"`
	TotalSCU      *int   `json:"total_scu,omitempty"`
}

// HasPDPT reports whether the record carries alternate-calendar data.
func (r AdmissionRecord) HasPDPT() bool {
	return r.PDPTIntake != nil
}

// Admission export columns; `;`-delimited, Windows-1252 like the attendance
// exports.
const (
	admColExternalID = "BINUSIAN ID"
	admColNIM        = "NIM"
	admColName       = "NAME"
	admColProgram    = "PROGRAM"
	admColStatus     = "STATUS"
	admColAdmitTerm  = "ADMIT TERM"
	admColPDPT       = "PDPT INTAKE"
	admColType       = "STUDENT TYPE"
	admColSCU        = "TOTAL SCU"
)

var admissionRequired = []string{
	admColNIM, admColName, admColProgram, admColStatus, admColAdmitTerm,
}

func newAdmissionReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	return cr
}

// ParseAdmissionCSV reads an admission export, keeping only AC and LA rows.
// An absent PDPT intake is the "-" sentinel; an absent SCU stays nil rather
// than failing, the one permitted local recovery.
func ParseAdmissionCSV(r io.Reader) ([]AdmissionRecord, error) {
	rows, err := newAdmissionReader(r).ReadAll()
	if err != nil {
		return nil, utils.Wrap(utils.KindInvalidData, err, "cannot parse admission CSV")
	}
	if len(rows) == 0 {
		return nil, utils.InvalidData("file is empty")
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, name := range admissionRequired {
		if _, ok := col[name]; !ok {
			return nil, utils.InvalidData("missing column: %s", name)
		}
	}

	out := make([]AdmissionRecord, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		get := func(name string) string {
			if idx, ok := col[name]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		status := get(admColStatus)
		if status != StatusActive && status != StatusLeaveOfAbsence {
			continue
		}

		nim, err := strconv.Atoi(get(admColNIM))
		if err != nil {
			return nil, utils.InvalidData("line %d: NIM is not a number: %q", i+1, get(admColNIM))
		}
		admit, err := ParseBinusTerm(get(admColAdmitTerm))
		if err != nil {
			return nil, err
		}

		rec := AdmissionRecord{
			ExternalID:    get(admColExternalID),
			StudentID:     nim,
			FullName:      get(admColName),
			Program:       get(admColProgram),
			ProgramStatus: status,
			AdmitTerm:     admit,
			StudentType:   get(admColType),
		}

		if raw := get(admColPDPT); raw != "" && raw != NoPDPT {
			pdpt, err := ParsePDPTTerm(raw)
			if err != nil {
				return nil, err
			}
			rec.PDPTIntake = &pdpt
		}
		if raw := get(admColSCU); raw != "" {
			scu, err := strconv.Atoi(raw)
			if err != nil {
				return nil, utils.InvalidData("line %d: TOTAL SCU is not a number: %q", i+1, raw)
			}
			rec.TotalSCU = &scu
		}

		out = append(out, rec)
	}
	return out, nil
}

// MarshalAdmissionCSV renders admission records back to the export format so
// the stored blob round-trips.
func MarshalAdmissionCSV(records []AdmissionRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(charmap.Windows1252.NewEncoder().Writer(&buf))
	w.Comma = ';'

	header := []string{
		admColExternalID, admColNIM, admColName, admColProgram, admColStatus,
		admColAdmitTerm, admColPDPT, admColType, admColSCU,
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range records {
		pdpt := NoPDPT
		if r.PDPTIntake != nil {
			pdpt = r.PDPTIntake.EncodePDPT()
		}
		scu := ""
		if r.TotalSCU != nil {
			scu = strconv.Itoa(*r.TotalSCU)
		}
		row := []string{
			r.ExternalID, strconv.Itoa(r.StudentID), r.FullName, r.Program, r.ProgramStatus,
			r.AdmitTerm.EncodeBinus(), pdpt, r.StudentType, scu,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
