// Package main 提供 fileshare 命令行入口
//
// 在单个进程内启动一组共享同一进程内网络的节点：第一个节点提供文件，
// 最后一个节点通过 DHT 查找提供者并获取内容。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-fileshare"
	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/internal/core/memnet"
	"github.com/dep2p/go-fileshare/internal/util/logger"
	"github.com/dep2p/go-fileshare/pkg/types"
)

var log = logger.Logger("fileshare/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile = flag.String("config", "", "配置文件路径（JSON）")
	numNodes   = flag.Int("nodes", 3, "启动的节点数量")
	provide    = flag.String("provide", "", "由第一个节点提供的文件（逗号分隔，以文件名作为内容键）")
	get        = flag.String("get", "", "由最后一个节点获取的内容键")
	outPath    = flag.String("out", "", "获取结果的输出路径（为空时只打印大小）")
	logLevel   = flag.String("log-level", "", "日志级别 (debug/info/warn/error)，覆盖配置文件")
	timeout    = flag.Duration("timeout", 30*time.Second, "provide/get 的总超时")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(fileshare.VersionInfo())
		return nil
	}
	if *numNodes < 1 {
		return fmt.Errorf("-nodes 必须 >= 1，当前 %d", *numNodes)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v\n", err)
		fmt.Fprintln(os.Stderr, "将继续使用控制台输出日志")
	}
	defer closeLog()

	log.Info("启动 fileshare", "version", fileshare.Version, "nodes", *numNodes)

	nodes, err := startSwarm(cfg, *numNodes)
	defer func() {
		var errs error
		for _, n := range nodes {
			errs = multierr.Append(errs, n.Close())
		}
		if errs != nil {
			log.Warn("关闭节点出错", "err", errs)
		}
	}()
	if err != nil {
		return err
	}
	printSwarm(nodes)

	if *provide == "" && *get == "" {
		fmt.Println("节点已启动，按 Ctrl+C 退出")
		waitForSignal()
		fmt.Println("\n正在关闭节点...")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *provide != "" {
		if err := provideFiles(ctx, nodes[0], strings.Split(*provide, ",")); err != nil {
			return err
		}
	}
	if *get != "" {
		if err := fetchContent(ctx, nodes[len(nodes)-1], types.ContentKey(*get), *outPath); err != nil {
			return err
		}
	}
	return nil
}

// startSwarm 在同一个进程内网络上启动 n 个节点
//
// 落盘存储时每个节点使用 data_dir 下独立的子目录。
func startSwarm(cfg *config.Config, n int) ([]*fileshare.Node, error) {
	net := memnet.NewNetwork(cfg.Engine)
	nodes := make([]*fileshare.Node, 0, n)

	for i := 0; i < n; i++ {
		nodeCfg := *cfg
		if !cfg.Storage.InMemory {
			nodeCfg.Storage.DataDir = filepath.Join(cfg.Storage.DataDir, fmt.Sprintf("node-%d", i))
		}

		node, err := fileshare.New(
			fileshare.WithConfig(&nodeCfg),
			fileshare.WithNetwork(net),
		)
		if err != nil {
			return nodes, fmt.Errorf("创建节点 %d 失败: %w", i, err)
		}
		nodes = append(nodes, node)

		if err := node.Start(context.Background()); err != nil {
			return nodes, fmt.Errorf("启动节点 %d 失败: %w", i, err)
		}
	}
	return nodes, nil
}

func provideFiles(ctx context.Context, node *fileshare.Node, paths []string) error {
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p) //nolint:gosec // G304: 用户指定的文件路径是预期行为
		if err != nil {
			return fmt.Errorf("读取 %s 失败: %w", p, err)
		}
		key := types.ContentKey(filepath.Base(p))
		if err := node.Provide(ctx, key, data); err != nil {
			return fmt.Errorf("提供 %s 失败: %w", key, err)
		}
		fmt.Printf("📤 %s 提供 %s (%d 字节)\n", node.ID().ShortString(), key, len(data))
	}
	return nil
}

func fetchContent(ctx context.Context, node *fileshare.Node, key types.ContentKey, out string) error {
	start := time.Now()
	data, err := node.Fetch(ctx, key)
	if err != nil {
		return fmt.Errorf("获取 %s 失败: %w", key, err)
	}
	elapsed := time.Since(start)

	if out == "" {
		fmt.Printf("📥 %s 获取 %s (%d 字节, %s)\n", node.ID().ShortString(), key, len(data), elapsed.Round(time.Millisecond))
		return nil
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", out, err)
	}
	fmt.Printf("📥 %s 获取 %s → %s (%d 字节, %s)\n", node.ID().ShortString(), key, out, len(data), elapsed.Round(time.Millisecond))
	return nil
}

func printSwarm(nodes []*fileshare.Node) {
	fmt.Printf("📦 %s\n", fileshare.VersionInfo())
	for i, n := range nodes {
		addrs := make([]string, 0)
		for _, a := range n.ListenAddrs() {
			addrs = append(addrs, a.String())
		}
		fmt.Printf("  [%d] %s  %s\n", i, n.ID(), strings.Join(addrs, ", "))
	}
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}
