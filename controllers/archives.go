package controllers

import (
	"github.com/BrandonSalimTheHuman/SASC/services"
	"github.com/BrandonSalimTheHuman/SASC/utils"

	"github.com/gofiber/fiber/v2"
)

type ArchiveController struct {
	archives *services.ArchiveService
}

func NewArchiveController(archives *services.ArchiveService) *ArchiveController {
	return &ArchiveController{archives: archives}
}

// ListArchives returns activity-log archive metadata, newest first.
func (ac *ArchiveController) ListArchives(c *fiber.Ctx) error {
	archives, err := ac.archives.GetArchives()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "cannot fetch archives"})
	}
	return c.JSON(fiber.Map{"archives": archives})
}

// DownloadArchive streams one archive zip back from S3.
func (ac *ArchiveController) DownloadArchive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.InvalidData("invalid archive ID: %s", c.Params("id"))
	}

	reader, filename, err := ac.archives.DownloadArchive(uint(id))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendStream(reader)
}
