// bilicli 是 SDK 的演示与运维入口: 查看登录态、收发私信、
// 盯守新消息、拉取通知 Feed、上传音频稿件.
// 凭据与行为通过 config.yaml / BILI_ 环境变量 / .env 配置
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/pkg/config"
	"github.com/waiav123/bilibili-api/pkg/logger"
)

// 一次性命令的整体超时
const commandTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("bilicli", flag.ContinueOnError)
	fs.Usage = usage
	configPath := fs.String("config", "", "配置文件路径, 默认查找 ./config/config.yaml 与 ./config.yaml")
	verbose := fs.Bool("v", false, "输出调试日志")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}
	cmd, cmdArgs := rest[0], rest[1:]

	// config-init 在加载配置之前就要能用
	if cmd == "config-init" {
		return runConfigInit(cmdArgs)
	}

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	a, err := newApp(*configPath, *verbose)
	if err != nil {
		return err
	}

	switch cmd {
	case "me":
		return a.runMe(cmdArgs)
	case "sessions":
		return a.runSessions(cmdArgs)
	case "send":
		return a.runSend(cmdArgs)
	case "watch":
		return a.runWatch(cmdArgs)
	case "feed":
		return a.runFeed(cmdArgs)
	case "upload":
		return a.runUpload(cmdArgs)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: bilicli [-config path] [-v] <command> [flags]

Commands:
  me           显示当前登录账号
  sessions     列出最近私信会话
  send         发送一条文本私信
  watch        盯守新私信, Ctrl+C 退出
  feed         拉取点赞/回复/@/未读/系统通知
  upload       上传音频稿件
  config-init  生成示例配置文件

Run "bilicli <command> -h" for command flags.
`)
}

// app 汇总子命令共用的依赖
type app struct {
	cfg    *config.Config
	log    logger.Logger
	client *bilibili.Client
}

func newApp(configPath string, verbose bool) (*app, error) {
	cfg, err := config.NewFileLoader(configPath).Load()
	if err != nil {
		return nil, err
	}

	level := logger.InfoLevel
	if verbose {
		level = logger.DebugLevel
	}
	log := logger.New(&logger.Config{
		Level:  level,
		Output: os.Stderr,
	})

	client := bilibili.New(config.ClientOptions(cfg, log)...)
	return &app{cfg: cfg, log: log, client: client}, nil
}

func (a *app) runMe(args []string) error {
	fs := flag.NewFlagSet("me", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	nav, err := a.client.Nav(ctx)
	if err != nil {
		return err
	}
	if !nav.IsLogin {
		fmt.Println("未登录 (匿名访问)")
		return nil
	}
	fmt.Printf("%s (uid %d)\n", nav.Uname, nav.Mid)
	return nil
}

func runConfigInit(args []string) error {
	fs := flag.NewFlagSet("config-init", flag.ContinueOnError)
	output := fs.String("o", "config.yaml", "输出路径")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*output); err == nil {
		return fmt.Errorf("%s already exists", *output)
	}
	if err := config.CreateExampleConfig(*output); err != nil {
		return err
	}
	fmt.Printf("example config written to %s\n", *output)
	return nil
}
