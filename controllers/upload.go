package controllers

import (
	"bytes"
	"io"
	"strings"

	"github.com/BrandonSalimTheHuman/SASC/config"
	"github.com/BrandonSalimTheHuman/SASC/middleware"
	"github.com/BrandonSalimTheHuman/SASC/services"
	"github.com/BrandonSalimTheHuman/SASC/services/attendance"
	"github.com/BrandonSalimTheHuman/SASC/services/standing"
	"github.com/BrandonSalimTheHuman/SASC/storage"
	"github.com/BrandonSalimTheHuman/SASC/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type UploadController struct {
	store     *services.SemesterStore
	snapshots *storage.SnapshotService
}

func NewUploadController(store *services.SemesterStore, snapshots *storage.SnapshotService) *UploadController {
	return &UploadController{store: store, snapshots: snapshots}
}

// readUpload pulls the multipart file out of the request and enforces the
// size and extension limits.
func readUpload(c *fiber.Ctx) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, utils.InvalidData("no file uploaded")
	}
	if file.Size > config.AppConfig.MaxFileSize {
		return "", nil, utils.InvalidData("file exceeds maximum size of %d bytes", config.AppConfig.MaxFileSize)
	}

	allowed := strings.Split(config.AppConfig.AllowedExtensions, ",")
	if !utils.IsValidFileExtension(file.Filename, allowed) {
		return "", nil, utils.InvalidData("only CSV uploads are accepted")
	}

	src, err := file.Open()
	if err != nil {
		return "", nil, utils.Wrap(utils.KindInvalidData, err, "cannot open upload")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil, utils.Wrap(utils.KindInvalidData, err, "cannot read upload")
	}
	return file.Filename, data, nil
}

// UploadAttendance ingests one semester export: the semester is derived from
// the filename, the rows are normalized and the stored blob for that semester
// is replaced.
func (uc *UploadController) UploadAttendance(c *fiber.Ctx) error {
	filename, data, err := readUpload(c)
	if err != nil {
		return err
	}

	key, err := attendance.SemesterFromFilename(filename)
	if err != nil {
		return err
	}

	table, err := attendance.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return err
	}

	normalized, err := attendance.Normalize(table, attendance.DefaultNormalizeOptions())
	if err != nil {
		return err
	}
	// Session-level uploads are stored in rolled-up form so every stored blob
	// shares one schema.
	if normalized.Schema == attendance.SessionLevelSchema {
		normalized = attendance.Rollup(normalized)
	}

	blob, err := normalized.MarshalCSV()
	if err != nil {
		return utils.Wrap(utils.KindInvalidData, err, "cannot serialize normalized table")
	}

	// Snapshot first so the raw upload is preserved even if the write below
	// fails; an orphaned snapshot is deleted again.
	var snapKey string
	if config.AppConfig.SnapshotUploads && uc.snapshots != nil {
		if snapKey, err = uc.snapshots.SnapshotUpload(key, filename, data); err != nil {
			logrus.WithError(err).Warn("Failed to snapshot upload to S3")
			snapKey = ""
		} else {
			logrus.WithField("s3_key", snapKey).Info("Snapshotted upload to S3")
		}
	}

	if err := uc.store.PutTable(key, blob, len(normalized.Records), utils.SanitizeFilename(filename)); err != nil {
		if snapKey != "" {
			if delErr := uc.snapshots.DeleteSnapshot(snapKey); delErr != nil {
				logrus.WithError(delErr).WithField("s3_key", snapKey).Warn("Failed to delete orphaned S3 snapshot")
			}
		}
		return err
	}

	middleware.LogActivity(c, "UPLOAD", "attendance", 0, fiber.Map{
		"filename":  filename,
		"year":      key.Year,
		"semester":  string(key.Semester),
		"row_count": len(normalized.Records),
	})

	return c.JSON(fiber.Map{
		"success":          true,
		"fileYear":         key.Year,
		"fileSemesterType": string(key.Semester),
		"rowCount":         len(normalized.Records),
	})
}

// UploadAdmissions replaces the stored admission-record table wholesale.
func (uc *UploadController) UploadAdmissions(c *fiber.Ctx) error {
	filename, data, err := readUpload(c)
	if err != nil {
		return err
	}

	records, err := standing.ParseAdmissionCSV(bytes.NewReader(data))
	if err != nil {
		return err
	}

	blob, err := standing.MarshalAdmissionCSV(records)
	if err != nil {
		return utils.Wrap(utils.KindInvalidData, err, "cannot serialize admission records")
	}

	var snapKey string
	if config.AppConfig.SnapshotUploads && uc.snapshots != nil {
		if snapKey, err = uc.snapshots.SnapshotAdmissions(filename, data); err != nil {
			logrus.WithError(err).Warn("Failed to snapshot upload to S3")
			snapKey = ""
		} else {
			logrus.WithField("s3_key", snapKey).Info("Snapshotted upload to S3")
		}
	}

	if err := uc.store.PutAdmissions(blob, len(records), utils.SanitizeFilename(filename)); err != nil {
		if snapKey != "" {
			if delErr := uc.snapshots.DeleteSnapshot(snapKey); delErr != nil {
				logrus.WithError(delErr).WithField("s3_key", snapKey).Warn("Failed to delete orphaned S3 snapshot")
			}
		}
		return err
	}

	middleware.LogActivity(c, "UPLOAD", "admissions", 0, fiber.Map{
		"filename":     filename,
		"record_count": len(records),
	})

	return c.JSON(fiber.Map{
		"success":     true,
		"recordCount": len(records),
	})
}
