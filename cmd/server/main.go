package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ogurasousui/hr-backoffice/internal/adapters/http/handler"
	pgrepo "github.com/ogurasousui/hr-backoffice/internal/adapters/repository/postgres"
	"github.com/ogurasousui/hr-backoffice/internal/core/assignment"
	"github.com/ogurasousui/hr-backoffice/internal/core/employee"
	"github.com/ogurasousui/hr-backoffice/internal/core/leave"
	"github.com/ogurasousui/hr-backoffice/internal/core/scope"
	"github.com/ogurasousui/hr-backoffice/internal/platform/config"
	pgdb "github.com/ogurasousui/hr-backoffice/internal/platform/db/postgres"
	"github.com/ogurasousui/hr-backoffice/internal/platform/logging"
	"github.com/ogurasousui/hr-backoffice/internal/platform/server"
)

const defaultConfigPath = "assets/local.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("failed to load config", zap.String("path", configPath), zap.Error(err))
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	pool, err := pgdb.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	txManager := pgdb.NewTransactionManager(pool)

	employeeRepo := pgrepo.NewEmployeeRepository(pool)
	roleRepo := pgrepo.NewRoleRepository(pool)
	assignmentRepo := pgrepo.NewAssignmentRepository(pool)
	leaveRepo := pgrepo.NewLeaveRepository(pool)

	gate := scope.NewGate(employeeRepo)
	statusService := employee.NewStatusService(employeeRepo)
	assignmentService := assignment.NewService(assignmentRepo, employeeRepo, roleRepo, nil, txManager)
	leaveService := leave.NewService(leaveRepo, employeeRepo, statusService, nil, txManager, logger)

	srv := server.New(*cfg, gate, server.Handlers{
		Assignment: handler.NewAssignmentHandler(assignmentService, logger),
		Leave:      handler.NewLeaveHandler(leaveService, logger),
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("http server exited with error", zap.Error(err))
	}
}
