package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	http_server "KnowLink/api/http"
	"KnowLink/internal/config"
	"KnowLink/pkg/zlog"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port

	// 2. 启动 HTTP 服务
	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		zlog.Info(fmt.Sprintf("服务器正在启动，监听地址: %s", addr))
		// 目前使用 HTTP 启动。如果需要 HTTPS，请配置证书并使用 GE.RunTLS
		if err := http_server.GE.Run(addr); err != nil {
			zlog.Fatal("服务器启动失败: " + err.Error())
			return
		}
	}()

	// 3. Kafka 开启时在后台消费摄取请求
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	if http_server.IntakeWorker != nil {
		go func() {
			if err := http_server.IntakeWorker.Run(consumerCtx); err != nil && consumerCtx.Err() == nil {
				zlog.Error("摄取消费者退出: " + err.Error())
			}
		}()
	}

	// 4. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务器...")
	stopConsumer()
	if http_server.IntakeWorker != nil {
		_ = http_server.IntakeWorker.Close()
	}
	if http_server.Publisher != nil {
		_ = http_server.Publisher.Close()
	}
	if http_server.Dispatcher != nil {
		http_server.Dispatcher.Close()
	}
	if http_server.VectorStore != nil {
		_ = http_server.VectorStore.Close(context.Background())
	}
	zlog.Sync()

	zlog.Info("服务器已关闭")
}
