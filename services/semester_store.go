package services

import (
	"errors"

	"github.com/BrandonSalimTheHuman/SASC/database"
	"github.com/BrandonSalimTheHuman/SASC/models"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"
	"github.com/BrandonSalimTheHuman/SASC/utils"

	"gorm.io/gorm"
)

// SemesterStore persists one attendance table per semester key plus the
// derived aggregate tables. Writes replace the whole blob inside a single
// transaction so a concurrent reader sees either the previous table or the
// new one, never a partial write.
type SemesterStore struct {
	db *gorm.DB
}

func NewSemesterStore() *SemesterStore {
	return &SemesterStore{db: database.DB}
}

// PutTable overwrites the stored table for a semester key.
func (s *SemesterStore) PutTable(key attendance.SemesterKey, csvData []byte, rowCount int, sourceName string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.AttendanceTable
		err := tx.Where("year = ? AND semester_type = ?", key.Year, string(key.Semester)).
			First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			entry := models.AttendanceTable{
				Year:         key.Year,
				SemesterType: string(key.Semester),
				CSVData:      csvData,
				RowCount:     rowCount,
				SourceName:   sourceName,
			}
			return tx.Create(&entry).Error
		}
		existing.CSVData = csvData
		existing.RowCount = rowCount
		existing.SourceName = sourceName
		return tx.Save(&existing).Error
	})
}

// GetTable fetches the stored table for a key. Zero matches is a not_found
// failure; more than one is an ambiguous_state failure (the unique index
// should make that impossible, but a corrupted table must not be half-read).
func (s *SemesterStore) GetTable(key attendance.SemesterKey) (*models.AttendanceTable, error) {
	var entries []models.AttendanceTable
	if err := s.db.Where("year = ? AND semester_type = ?", key.Year, string(key.Semester)).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
		return nil, utils.NotFound("no data found for %s", key)
	case 1:
		return &entries[0], nil
	}
	return nil, utils.AmbiguousState("%d tables found for %s, expected exactly one", len(entries), key)
}

// ListKeys returns every stored semester key in chronological order.
func (s *SemesterStore) ListKeys() ([]attendance.SemesterKey, error) {
	var entries []models.AttendanceTable
	if err := s.db.Select("year", "semester_type").Find(&entries).Error; err != nil {
		return nil, err
	}
	keys := make([]attendance.SemesterKey, 0, len(entries))
	for _, e := range entries {
		semester, err := attendance.ParseSemesterType(e.SemesterType)
		if err != nil {
			return nil, err
		}
		keys = append(keys, attendance.SemesterKey{Year: e.Year, Semester: semester})
	}
	attendance.SortSemesters(keys)
	return keys, nil
}

// GetAllTables loads every stored semester table, chronologically ordered.
func (s *SemesterStore) GetAllTables() ([]models.AttendanceTable, error) {
	var entries []models.AttendanceTable
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// PutAggregate overwrites one aggregate table for a semester key.
func (s *SemesterStore) PutAggregate(key attendance.SemesterKey, kind string, csvData []byte, rowCount int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.AggregateTable
		err := tx.Where("year = ? AND semester_type = ? AND kind = ?", key.Year, string(key.Semester), kind).
			First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			entry := models.AggregateTable{
				Year:         key.Year,
				SemesterType: string(key.Semester),
				Kind:         kind,
				CSVData:      csvData,
				RowCount:     rowCount,
			}
			return tx.Create(&entry).Error
		}
		existing.CSVData = csvData
		existing.RowCount = rowCount
		return tx.Save(&existing).Error
	})
}

// GetAggregate fetches one stored aggregate table.
func (s *SemesterStore) GetAggregate(key attendance.SemesterKey, kind string) (*models.AggregateTable, error) {
	var entries []models.AggregateTable
	if err := s.db.Where("year = ? AND semester_type = ? AND kind = ?", key.Year, string(key.Semester), kind).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
		return nil, utils.NotFound("no %s aggregate available for %s", kind, key)
	case 1:
		return &entries[0], nil
	}
	return nil, utils.AmbiguousState("%d %s aggregates found for %s, expected exactly one", len(entries), kind, key)
}

// PutAdmissions replaces the admission table wholesale.
func (s *SemesterStore) PutAdmissions(csvData []byte, recordCount int, sourceName string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(&models.AdmissionTable{}).Error; err != nil {
			return err
		}
		entry := models.AdmissionTable{
			CSVData:     csvData,
			RecordCount: recordCount,
			SourceName:  sourceName,
		}
		return tx.Create(&entry).Error
	})
}

// GetAdmissions fetches the current admission table; exactly one row is
// expected once an upload has happened.
func (s *SemesterStore) GetAdmissions() (*models.AdmissionTable, error) {
	var entries []models.AdmissionTable
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
		return nil, utils.NotFound("no admission data available")
	case 1:
		return &entries[0], nil
	}
	return nil, utils.AmbiguousState("%d admission tables found, expected exactly one", len(entries))
}
