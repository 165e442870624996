package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/logging"
	"expensetracker/repository"
	"expensetracker/service"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const minPasswordLen = 8

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "用户名")
	passwordFlag := fs.String("password", "", "密码（可选，省略时交互输入）")
	email := fs.String("email", "", "预算提醒邮箱（可选）")
	bank := fs.Int64("bank", 0, "初始银行余额（分）")
	cash := fs.Int64("cash", 0, "初始现金余额（分）")
	dbURL := fs.String("db", "", "数据库连接串，默认读取配置")
	configPath := fs.String("config", "", "外部配置文件路径（可选）")
	deactivate := fs.Bool("deactivate", false, "停用已有用户")
	activate := fs.Bool("activate", false, "重新启用已有用户")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-bank <cents>] [-cash <cents>] [-db <url>]")
		fmt.Fprintln(stdout, "       adduser -user <username> -deactivate|-activate [-db <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	if *deactivate && *activate {
		return fmt.Errorf("-deactivate and -activate are mutually exclusive")
	}
	if *deactivate || *activate {
		return setActive(*configPath, *dbURL, strings.TrimSpace(*username), *activate, stdout)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	auth, closeDB, err := openAuth(*configPath, *dbURL)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := auth.Register(context.Background(), service.RegisterInput{
		Username:    strings.TrimSpace(*username),
		Password:    password,
		Email:       strings.TrimSpace(*email),
		InitialBank: *bank,
		InitialCash: *cash,
	})
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			return fmt.Errorf("user %s already exists", *username)
		}
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d (bank %d, cash %d)\n",
		user.Username, user.ID, user.BankBalance, user.CashBalance)
	return nil
}

// setActive 切换已有用户的启用状态
func setActive(configPath, dbURL, username string, active bool, stdout io.Writer) error {
	auth, closeDB, err := openAuth(configPath, dbURL)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := auth.SetActive(context.Background(), username, active)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fmt.Errorf("user %s not found", username)
		}
		return fmt.Errorf("update user: %w", err)
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(stdout, "User %s (ID %d) %s\n", user.Username, user.ID, state)
	return nil
}

func openAuth(configPath, dbURL string) (*service.AuthService, func(), error) {
	dbCfg, err := databaseConfig(configPath, dbURL)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(dbCfg, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	closeDB := func() { _ = database.Close(db) }
	return service.NewAuthService(repository.New(db), nil, logging.Discard()), closeDB, nil
}

// databaseConfig -db 优先，否则按 .env 与配置文件解析
func databaseConfig(configPath, url string) (config.DatabaseConfig, error) {
	if url != "" {
		return config.DatabaseConfig{URL: url, LogLevel: "silent"}, nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.DatabaseConfig{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	return cfg.Database, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// 非终端输入（管道、测试）按行读取
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
