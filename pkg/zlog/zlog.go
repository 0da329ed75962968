package zlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"KnowLink/internal/config"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// getLogger 延迟初始化全局 logger，日志路径取自配置
func getLogger() *zap.Logger {
	once.Do(func() {
		logPath := strings.TrimSpace(config.GetConfig().LogConfig.LogPath)
		if logPath == "" {
			logPath = "logs/knowlink.log"
		}
		_ = os.MkdirAll(filepath.Dir(logPath), 0o755)

		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder := zapcore.NewJSONEncoder(encoderConfig)

		// 日志切割
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		})
		consoleWriter := zapcore.AddSync(os.Stdout)

		core := zapcore.NewTee(
			zapcore.NewCore(encoder, fileWriter, zapcore.InfoLevel),
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), consoleWriter, zapcore.InfoLevel),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	})
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	getLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	getLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	getLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	getLogger().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	getLogger().Fatal(msg, fields...)
}

// Sync 刷新缓冲区，进程退出前调用
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
