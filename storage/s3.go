package storage

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonSalimTheHuman/SASC/config"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// SnapshotService keeps raw copies of uploaded CSVs in S3 so an overwritten
// semester table can be recovered or audited later.
type SnapshotService struct {
	s3Client *s3.S3
	bucket   string
}

func NewSnapshotService() (*SnapshotService, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AppConfig.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			config.AppConfig.AWSAccessKeyID,
			config.AppConfig.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &SnapshotService{
		s3Client: s3.New(sess),
		bucket:   config.AppConfig.S3BucketName,
	}, nil
}

// SnapshotUpload stores the raw bytes of one semester upload under a key
// derived from the semester and upload time.
func (s *SnapshotService) SnapshotUpload(key attendance.SemesterKey, sourceName string, data []byte) (string, error) {
	now := time.Now()
	randomID := uuid.New().String()[:16]
	objectKey := fmt.Sprintf("uploads/attendance/%d/%s/%s/%s.csv",
		key.Year,
		strings.ToLower(string(key.Semester)),
		now.Format("2006-01-02"),
		randomID,
	)

	if err := s.putObject(objectKey, sourceName, data); err != nil {
		return "", err
	}
	return objectKey, nil
}

// SnapshotAdmissions stores the raw bytes of an admission-record upload.
func (s *SnapshotService) SnapshotAdmissions(sourceName string, data []byte) (string, error) {
	now := time.Now()
	randomID := uuid.New().String()[:16]
	objectKey := fmt.Sprintf("uploads/admissions/%s/%s.csv",
		now.Format("2006-01-02"),
		randomID,
	)

	if err := s.putObject(objectKey, sourceName, data); err != nil {
		return "", err
	}
	return objectKey, nil
}

func (s *SnapshotService) putObject(key, sourceName string, data []byte) error {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]*string{
			"source-filename": aws.String(sourceName),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %v", err)
	}
	return nil
}

// DeleteSnapshot removes a stored snapshot by key.
func (s *SnapshotService) DeleteSnapshot(key string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
