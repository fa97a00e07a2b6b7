package main

import (
	"net/http"
	"os"

	"flowcase/bizerror"
	"flowcase/client/es"
	"flowcase/domain"
	"flowcase/domain/flow"
	"flowcase/domain/flowlog"
	"flowcase/domain/work"
	"flowcase/indices"
	"flowcase/infra/tracing"
	"flowcase/misc"
	"flowcase/persistence"
	"flowcase/servehttp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	logrus.Infoln("service start")

	tracingCloser, err := tracing.SetupTracing()
	if err != nil {
		logrus.Fatalf("failed to setup tracing %v\n", err)
	}
	defer tracingCloser.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database conneciton failed %v\n", err)
	}
	defer ds.Stop()

	// database migration (race condition)
	err = ds.GormDB().AutoMigrate(
		&domain.WorkItem{}, &domain.FlowLog{}, &domain.TransitionRule{},
		&domain.WorkType{}, &domain.WorkflowState{}).Error
	if err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}

	ruleManager := flow.NewRuleManager(ds)
	if configFile := os.Getenv("WORKFLOW_CONFIG_FILE"); configFile != "" {
		if err := ruleManager.SeedWorkflowConfig(configFile); err != nil {
			logrus.Fatalf("failed to seed workflow config from %s: %v\n", configFile, err)
		}
	}

	if os.Getenv("ELASTICSEARCH_URL") != "" {
		es.CreateClientFromEnv()
		work.IndexWorkItemsFunc = indices.IndexWorkItems
		work.RemoveIndexDocFunc = indices.RemoveWorkItemDoc
	}

	flowLogManager := flowlog.NewFlowLogManager(ds)
	workItemManager := work.NewWorkItemManager(ds)
	transitionEngine := work.NewTransitionEngine(ds, ruleManager, flowLogManager)

	engine := gin.New()
	engine.Use(gin.Logger(), bizerror.ErrorHandling(), tracing.TracingIngress(), servehttp.RateLimit(rate.Limit(100), 200))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, misc.GetServiceName())
	})

	servehttp.RegisterWorkItemHandler(engine, workItemManager, transitionEngine, flowLogManager)
	servehttp.RegisterWorkflowConfigHandler(engine, ruleManager)

	servehttp.StartHTTPServer(engine)
}
