package routes

import (
	"github.com/BrandonSalimTheHuman/SASC/controllers"
	"github.com/BrandonSalimTheHuman/SASC/services"
	"github.com/BrandonSalimTheHuman/SASC/storage"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, store *services.SemesterStore, charts *services.ChartService, archives *services.ArchiveService, snapshots *storage.SnapshotService) {
	uploadController := controllers.NewUploadController(store, snapshots)
	tableController := controllers.NewTableController(store)
	chartController := controllers.NewChartController(charts)
	standingController := controllers.NewStandingController(store)
	exportController := controllers.NewExportController(store)
	archiveController := controllers.NewArchiveController(archives)

	api := app.Group("/api")

	// Attendance ingestion
	api.Post("/upload", uploadController.UploadAttendance)

	// Stored semesters and raw tables
	api.Get("/semesters", tableController.ListSemesters)
	api.Get("/tables/:year/:semester", tableController.GetTable)
	api.Get("/tables/:year/:semester/majors", tableController.ListMajors)

	// Aggregation
	api.Post("/aggregate/:year/:semester", tableController.RunAggregation)
	api.Get("/aggregate/:year/:semester/student-course", tableController.GetStudentCourseAggregate)
	api.Get("/aggregate/:year/:semester/student", tableController.GetStudentAggregate)

	// Charts
	chartGroup := api.Group("/charts")
	chartGroup.Get("/pie/:year/:semester", chartController.GetPieChart)
	chartGroup.Get("/major-bar/:year/:semester", chartController.GetMajorBarChart)
	chartGroup.Get("/student", chartController.GetStudentSeries)
	chartGroup.Get("/course", chartController.GetCourseSeries)
	chartGroup.Get("/student-course", chartController.GetStudentCourseSeries)

	// Academic standing
	api.Post("/standing/upload", uploadController.UploadAdmissions)
	api.Get("/standing/admissions", standingController.GetAdmissions)
	api.Get("/standing/classify", standingController.Classify)
	api.Get("/standing/classify/:nim", standingController.ClassifyStudent)

	// Spreadsheet export
	api.Get("/export/:year/:semester/:kind", exportController.ExportXLSX)

	// Activity-log archives
	api.Get("/archives", archiveController.ListArchives)
	api.Get("/archives/:id/download", archiveController.DownloadArchive)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "SASC API",
		})
	})
}
