package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BrandonSalimTheHuman/SASC/config"
	"github.com/BrandonSalimTheHuman/SASC/database"
	"github.com/BrandonSalimTheHuman/SASC/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ArchiveService flushes write-behind activity logs from Redis into the
// database and ships aged-out logs to S3 as zip archives.
type ArchiveService struct {
	redisClient *redis.Client
	awsConfig   aws.Config
	scheduler   *cron.Cron
}

// ArchivedEntry is the exported representation stored inside archives.
type ArchivedEntry struct {
	ID         uint           `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	RequestID  string         `json:"request_id"`
	CreatedAt  time.Time      `json:"created_at"`
}

func NewArchiveService() *ArchiveService {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(config.AppConfig.AWSRegion))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; archive uploads will fail until configured")
	}

	return &ArchiveService{
		redisClient: database.GetRedisClient(),
		awsConfig:   cfg,
	}
}

// FlushCachedLogs moves activity logs older than a day from the Redis
// write-behind queue into the database.
func (as *ArchiveService) FlushCachedLogs() error {
	if as.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)

	expired, err := as.redisClient.ZRangeByScore(ctx, "logs:queue", &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get expired logs: %v", err)
	}

	logrus.Infof("Processing %d expired cached logs", len(expired))

	var processed, failed int
	for _, logKey := range expired {
		data, err := as.redisClient.Get(ctx, logKey).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).Errorf("Failed to get log data for key: %s", logKey)
				failed++
			}
			continue
		}

		var entry models.ActivityLog
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			logrus.WithError(err).Errorf("Failed to unmarshal log data for key: %s", logKey)
			failed++
			continue
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			logrus.WithError(err).Errorf("Failed to save log to database: %v", entry)
			failed++
			continue
		}

		pipeline := as.redisClient.Pipeline()
		pipeline.Del(ctx, logKey)
		pipeline.ZRem(ctx, "logs:queue", logKey)
		if _, err := pipeline.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to remove log from cache: %s", logKey)
		}

		processed++
	}

	logrus.Infof("Flushed %d logs to database, %d errors", processed, failed)
	return nil
}

// ArchiveOldLogs ships logs older than daysOld to S3 and removes them from
// the database.
func (as *ArchiveService) ArchiveOldLogs(daysOld int) error {
	if daysOld < 7 {
		return fmt.Errorf("minimum archive age is 7 days for safety")
	}

	cutoff := time.Now().AddDate(0, 0, -daysOld)

	batchSize := 1000
	var entries []ArchivedEntry

	for offset := 0; ; offset += batchSize {
		var logs []models.ActivityLog

		err := database.DB.
			Where("created_at < ?", cutoff).
			Limit(batchSize).
			Offset(offset).
			Find(&logs).Error
		if err != nil {
			return fmt.Errorf("failed to fetch logs for archiving: %v", err)
		}
		if len(logs) == 0 {
			break
		}

		for _, entry := range logs {
			archived := ArchivedEntry{
				ID:         entry.ID,
				Action:     entry.Action,
				Resource:   entry.Resource,
				ResourceID: entry.ResourceID,
				IPAddress:  entry.IPAddress,
				UserAgent:  entry.UserAgent,
				RequestID:  entry.RequestID,
				CreatedAt:  entry.CreatedAt,
			}
			if !entry.Details.IsNull() {
				var details map[string]any
				if err := json.Unmarshal(entry.Details, &details); err == nil {
					archived.Details = details
				}
			}
			entries = append(entries, archived)
		}
	}

	if len(entries) == 0 {
		logrus.Info("No logs to archive")
		return nil
	}
	logrus.Infof("Archiving %d logs older than %s", len(entries), cutoff.Format("2006-01-02"))

	fileName := fmt.Sprintf("activity_logs_%s.zip", cutoff.Format("2006-01-02"))
	zipBuffer, err := as.createZipArchive(entries, fileName)
	if err != nil {
		return fmt.Errorf("failed to create ZIP archive: %v", err)
	}

	s3Key := fmt.Sprintf("logs/archived/%d/%02d/%s", cutoff.Year(), cutoff.Month(), fileName)
	if err := as.uploadToS3(s3Key, zipBuffer); err != nil {
		return fmt.Errorf("failed to upload archive to S3: %v", err)
	}
	logrus.Infof("Successfully uploaded archive to S3: %s", s3Key)

	result := database.DB.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete archived logs from database: %v", result.Error)
	}
	logrus.Infof("Deleted %d archived logs from database", result.RowsAffected)

	metadata := models.ExportArchive{
		FileName:    fileName,
		S3Key:       s3Key,
		StartDate:   entries[0].CreatedAt,
		EndDate:     cutoff,
		RecordCount: len(entries),
		FileSize:    int64(zipBuffer.Len()),
		Status:      "completed",
	}
	if err := database.DB.Create(&metadata).Error; err != nil {
		logrus.WithError(err).Error("Failed to save archive metadata")
	}

	return nil
}

// createZipArchive packs the entries as JSON plus a flat CSV summary.
func (as *ArchiveService) createZipArchive(entries []ArchivedEntry, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	logsFile, err := zipWriter.Create("activity_logs.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create logs file in ZIP: %v", err)
	}

	encoder := json.NewEncoder(logsFile)
	encoder.SetIndent("", "  ")
	payload := map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(entries),
		"format_version": "1.0",
		"logs":           entries,
	}
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode logs to JSON: %v", err)
	}

	metadataFile, err := zipWriter.Create("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata file in ZIP: %v", err)
	}
	metadata := map[string]any{
		"file_name":    fileName,
		"created_at":   time.Now().UTC(),
		"record_count": len(entries),
		"date_range": map[string]any{
			"start": entries[0].CreatedAt,
			"end":   entries[len(entries)-1].CreatedAt,
		},
		"schema_version": "1.0",
		"description":    "SASC Activity Logs Archive",
	}
	if err := json.NewEncoder(metadataFile).Encode(metadata); err != nil {
		return nil, fmt.Errorf("failed to encode metadata to JSON: %v", err)
	}

	csvFile, err := zipWriter.Create("activity_logs.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file in ZIP: %v", err)
	}

	csvFile.Write([]byte("ID,Action,Resource,Resource ID,Request ID,IP Address,User Agent,Created At,Details\n"))
	for _, entry := range entries {
		details := ""
		if entry.Details != nil {
			if detailsBytes, err := json.Marshal(entry.Details); err == nil {
				details = strings.ReplaceAll(string(detailsBytes), "\"", "\"\"")
			}
		}
		line := fmt.Sprintf("%d,%s,%s,%d,%s,%s,%s,%s,\"%s\"\n",
			entry.ID,
			entry.Action,
			entry.Resource,
			entry.ResourceID,
			entry.RequestID,
			entry.IPAddress,
			entry.UserAgent,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			details,
		)
		csvFile.Write([]byte(line))
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ZIP writer: %v", err)
	}
	return buf, nil
}

func (as *ArchiveService) uploadToS3(key string, data *bytes.Buffer) error {
	if as.awsConfig.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(as.awsConfig)
	bucketName := config.AppConfig.S3BucketName

	_, err := s3Client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      &bucketName,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})
	return err
}

func (as *ArchiveService) downloadFromS3(key string) (io.ReadCloser, error) {
	if as.awsConfig.Region == "" {
		return nil, fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(as.awsConfig)
	bucketName := config.AppConfig.S3BucketName

	result, err := s3Client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: &bucketName,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// GetArchives lists archive metadata, newest first.
func (as *ArchiveService) GetArchives() ([]models.ExportArchive, error) {
	var archives []models.ExportArchive
	err := database.DB.
		Order("created_at DESC").
		Find(&archives).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve archives: %v", err)
	}
	return archives, nil
}

// DownloadArchive streams one archive back from S3.
func (as *ArchiveService) DownloadArchive(archiveID uint) (io.ReadCloser, string, error) {
	var archive models.ExportArchive

	err := database.DB.First(&archive, archiveID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", fmt.Errorf("archive not found")
		}
		return nil, "", fmt.Errorf("failed to retrieve archive: %v", err)
	}

	reader, err := as.downloadFromS3(archive.S3Key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download archive from S3: %v", err)
	}
	return reader, archive.FileName, nil
}

// StartMaintenanceScheduler runs the flush hourly and the S3 archival daily.
func (as *ArchiveService) StartMaintenanceScheduler() {
	days := config.AppConfig.ArchiveLogDays

	as.scheduler = cron.New()
	as.scheduler.AddFunc("@hourly", func() {
		if err := as.FlushCachedLogs(); err != nil {
			logrus.WithError(err).Warn("scheduled FlushCachedLogs failed")
		}
	})
	as.scheduler.AddFunc("@daily", func() {
		if err := as.ArchiveOldLogs(days); err != nil {
			logrus.WithError(err).Warn("scheduled ArchiveOldLogs failed")
		}
	})
	as.scheduler.Start()

	go func() {
		if err := as.FlushCachedLogs(); err != nil {
			logrus.WithError(err).Warn("initial FlushCachedLogs failed")
		}
		if err := as.ArchiveOldLogs(days); err != nil {
			logrus.WithError(err).Warn("initial ArchiveOldLogs failed")
		}
	}()
}

// StopMaintenanceScheduler halts the cron jobs, letting running jobs finish.
func (as *ArchiveService) StopMaintenanceScheduler() {
	if as.scheduler != nil {
		as.scheduler.Stop()
	}
}
