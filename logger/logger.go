package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bpmshuffle/model"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger = zap.NewNop()
	once         sync.Once
)

// Config 定义日志配置
type Config struct {
	Level      string // debug, info, warn, error
	OutputPath string // 为空时只输出到控制台
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// ParseLevel 将字符串转换为 zap 日志级别，无法识别时使用 Info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// InitLogger 初始化日志系统，只有第一次调用生效
func InitLogger(config Config) {
	once.Do(func() {
		globalLogger = New(config)
	})
}

// New 按配置创建 logger：JSON 输出到 stderr，配置了文件路径时再通过 lumberjack 写入轮转文件
func New(config Config) *zap.Logger {
	level := ParseLevel(config.Level)

	// 控制台写 stderr，stdout 留给播放列表输出
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(os.Stderr), level),
	}

	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0755); err != nil {
			panic(err)
		}
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.OutputPath,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// L 返回全局 logger，未初始化时为 Nop
func L() *zap.Logger {
	return globalLogger
}

// Sync 刷新缓冲的日志
func Sync() {
	_ = globalLogger.Sync()
}

func Debug(msg string, fields ...zap.Field) { globalLogger.Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { globalLogger.Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { globalLogger.Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { globalLogger.Error(msg, fields...) }

// Fatal 输出致命错误级别日志并退出程序
func Fatal(msg string, fields ...zap.Field) { globalLogger.Fatal(msg, fields...) }

// 辅助函数，用于创建字段
func String(key string, val string) zap.Field { return zap.String(key, val) }

func Int(key string, val int) zap.Field { return zap.Int(key, val) }

func Bool(key string, val bool) zap.Field { return zap.Bool(key, val) }

func ErrorField(err error) zap.Field { return zap.Error(err) }

func Any(key string, val interface{}) zap.Field { return zap.Any(key, val) }

func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }

// TrackField 以对象形式记录一首歌曲
func TrackField(key string, t model.Track) zap.Field {
	return zap.Object(key, zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("title", t.Title)
		enc.AddString("artist", t.Artist)
		enc.AddInt("bpm", t.Tempo)
		enc.AddInt("length", t.Length)
		return nil
	}))
}
