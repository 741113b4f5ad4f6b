package zlog

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// Options 日志初始化参数
type Options struct {
	LogPath    string // 日志文件路径，为空时仅输出到控制台
	Level      string // debug/info/warn/error
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init 初始化全局 logger，只生效一次
func Init(opts Options) {
	once.Do(func() {
		logger = build(opts)
	})
}

func build(opts Options) *zap.Logger {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(os.Stdout), level),
	}

	if opts.LogPath != "" {
		_ = os.MkdirAll(filepath.Dir(opts.LogPath), 0o755)
		writer := &lumberjack.Logger{
			Filename:   opts.LogPath,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(writer), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// L 返回全局 logger；未初始化时使用仅控制台输出的默认配置
func L() *zap.Logger {
	Init(Options{})
	return logger
}

// Sync 刷新缓冲区
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }
