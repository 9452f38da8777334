package main

import (
	"cleanops/bizerror"
	"cleanops/client/s3"
	"cleanops/common"
	"cleanops/domain/export"
	"cleanops/domain/report"
	"cleanops/domain/report/reportrest"
	"cleanops/infra/tracing"
	"cleanops/persistence"
	"cleanops/recordstore"
	"cleanops/servehttp"
	"cleanops/session"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

func main() {
	common.Log.Info("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		common.Log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			common.Log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		common.Log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()

	// database migration (race condition)
	err = ds.GormDB().AutoMigrate(&report.WorkReport{}).Error
	if err != nil {
		common.Log.Fatalf("database migration failed %v\n", err)
	}

	tracingCloser, err := tracing.Bootstrap(common.GetServiceName())
	if err != nil {
		common.Log.Fatalf("tracing bootstrap failed %v\n", err)
	}
	defer tracingCloser.Close()

	verifier, err := session.NewHttpIdentityVerifierFromEnv()
	if err != nil {
		common.Log.Fatalf("identity verifier setup failed %v\n", err)
	}

	reportManager := report.NewReportManager(
		recordstore.NewGormStore(ds),
		strings.Split(os.Getenv("PRIVATE_TEMPLATE_IDS"), ","),
	)

	renderer, err := export.NewHttpRendererFromEnv()
	if err != nil {
		common.Log.Fatalf("renderer setup failed %v\n", err)
	}
	artifactStorage, err := s3.NewOssArtifactStorageFromEnv()
	if err != nil {
		common.Log.Fatalf("artifact storage setup failed %v\n", err)
	}
	exporter := export.NewExporter(reportManager, renderer, artifactStorage)

	engine := gin.Default()
	engine.Use(servehttp.CORS(), tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	authFilter := session.BearerAuthFilter(verifier)
	session.RegisterSessionRestAPI(engine, authFilter)
	reportrest.RegisterWorkReportRestAPI(engine, reportManager, exporter, authFilter)

	servehttp.StartHTTPServer(engine)
}
