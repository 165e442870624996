package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/events"
	"expensetracker/ledger"
	"expensetracker/logging"
	"expensetracker/middleware"
	"expensetracker/repository"
	"expensetracker/router"
	"expensetracker/service"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// @title Expense Tracker API
// @version 1.0
// @description 个人记账 API：用户注册登录、银行与现金双余额的收支记录、预算实时汇总与数据导出
// @host localhost:8000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	configFile  string
	envFile     string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&envFile, "env", ".env", "环境变量文件，不存在时忽略")
	flag.StringVar(&port, "port", "", "监听端口，如: 8000 或 :8000")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("expense tracker v" + version)
		return
	}

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env 只补充尚未设置的环境变量
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}
	if cfg.Ledger.Currency, err = ledger.CurrencyCode(cfg.Ledger.Currency); err != nil {
		return fmt.Errorf("ledger currency: %w", err)
	}
	config.PrintConfig()

	log := logging.New(cfg.Log)
	slog.SetDefault(log)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	jwt, err := middleware.NewJWT(cfg.JWT)
	if err != nil {
		return err
	}

	publisher, err := newPublisher(cfg.AMQP, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	var alerter service.BudgetAlerter
	if email := service.NewEmailService(&cfg.Email, cfg.Ledger.Currency); email.Enabled() {
		alerter = email
	}

	limiter := middleware.NewLoginLimiter(cfg.Server.LoginRateLimit, middleware.LoginWindow)
	defer limiter.Close()

	store := repository.New(db)
	auth := service.NewAuthService(store, jwt, log)
	r := router.SetupRouter(cfg, router.Deps{
		Auth:         auth,
		Expenses:     service.NewExpenseService(store, publisher, alerter, log),
		Budgets:      service.NewBudgetService(store, log),
		JWT:          jwt,
		Log:          log,
		LoginLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening",
			"addr", cfg.Server.Port,
			"swagger", "http://localhost"+cfg.Server.Port+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newPublisher 配置了 amqp.url 时投递账务事件，否则不投递
func newPublisher(cfg config.AMQPConfig, log *slog.Logger) (events.Publisher, error) {
	if cfg.URL == "" {
		return events.Nop{}, nil
	}
	p, err := events.DialAMQP(cfg.URL, cfg.Exchange, log)
	if err != nil {
		return nil, fmt.Errorf("connect amqp %s: %w", config.RedactURL(cfg.URL), err)
	}
	return p, nil
}
