package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// AttendanceTable stores one normalized semester export as a `;`-delimited
// Windows-1252 CSV blob. Exactly one row may exist per (year, semester_type);
// uploads for the same key overwrite the blob in a single transaction.
type AttendanceTable struct {
	BaseModel
	Year         int    `json:"year" gorm:"not null;uniqueIndex:idx_semester"`
	SemesterType string `json:"semester_type" gorm:"size:10;not null;uniqueIndex:idx_semester"`
	CSVData      []byte `json:"-" gorm:"type:longblob;not null"`
	RowCount     int    `json:"row_count" gorm:"not null"`
	SourceName   string `json:"source_name" gorm:"size:255"`
}

// Aggregate table kinds.
const (
	AggregateStudentCourse = "student_course"
	AggregateStudent       = "student"
)

// AggregateTable stores a computed aggregation result for one semester.
type AggregateTable struct {
	BaseModel
	Year         int    `json:"year" gorm:"not null;uniqueIndex:idx_semester_kind"`
	SemesterType string `json:"semester_type" gorm:"size:10;not null;uniqueIndex:idx_semester_kind"`
	Kind         string `json:"kind" gorm:"size:30;not null;uniqueIndex:idx_semester_kind"`
	CSVData      []byte `json:"-" gorm:"type:longblob;not null"`
	RowCount     int    `json:"row_count" gorm:"not null"`
}

// AdmissionTable stores the current admission-record export. The table is
// replaced wholesale on each upload cycle; readers expect exactly one row.
type AdmissionTable struct {
	BaseModel
	CSVData     []byte `json:"-" gorm:"type:longblob;not null"`
	RecordCount int    `json:"record_count" gorm:"not null"`
	SourceName  string `json:"source_name" gorm:"size:255"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`
	RequestID  string `json:"request_id" gorm:"size:64"`
}

// ExportArchive tracks activity-log archives shipped to S3
type ExportArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
