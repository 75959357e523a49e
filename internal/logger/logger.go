package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel: "\033[36m", // Cyan
	zapcore.InfoLevel:  "\033[32m", // Green
	zapcore.WarnLevel:  "\033[33m", // Yellow
	zapcore.ErrorLevel: "\033[31m", // Red
	zapcore.FatalLevel: "\033[35m", // Magenta
}

const colorReset = "\033[0m"

// FileOptions controls rotation of the log file written by InitWithFileOptions.
type FileOptions struct {
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Logger is the main logger instance.
type Logger struct {
	mu          sync.Mutex
	level       zap.AtomicLevel
	output      io.Writer
	colorEnable bool
	file        *lumberjack.Logger
	filePath    string
	sugar       *zap.SugaredLogger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger with the specified level. Console
// output goes to stderr, leaving stdout to command output.
func Init(levelStr string) {
	once.Do(func() {
		defaultLogger = &Logger{
			level:       zap.NewAtomicLevelAt(parseLevel(levelStr)),
			output:      os.Stderr,
			colorEnable: true,
		}
		defaultLogger.rebuild()
	})
}

// InitWithFileOptions initializes the default logger and additionally writes
// every entry as JSON to a rotating file under dir.
func InitWithFileOptions(levelStr, dir string, opts FileOptions) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	Init(levelStr)

	// Filename format: YYYY-MM-DD_HH-MM-SS_TZ.log
	name := time.Now().Format("2006-01-02_15-04-05_MST") + ".log"
	path := filepath.Join(dir, name)

	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level.SetLevel(parseLevel(levelStr))
	defaultLogger.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}
	defaultLogger.filePath = path
	defaultLogger.rebuild()
	return nil
}

// GetLogFilePath returns the current log file path, or "" if file logging is off.
func GetLogFilePath() string {
	if defaultLogger == nil {
		return ""
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.filePath
}

// Close flushes buffered entries and closes the log file, if any.
func Close() {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	_ = defaultLogger.sugar.Sync()
	if defaultLogger.file != nil {
		_ = defaultLogger.file.Close()
		defaultLogger.file = nil
		defaultLogger.rebuild()
	}
}

// SetLevel sets the logging level for the default logger.
func SetLevel(levelStr string) {
	if defaultLogger == nil {
		Init(levelStr)
		return
	}
	defaultLogger.level.SetLevel(parseLevel(levelStr))
}

// SetOutput sets the console destination for the default logger.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		Init("info")
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
	defaultLogger.rebuild()
}

// SetColorEnable enables or disables color output on the console.
func SetColorEnable(enable bool) {
	if defaultLogger == nil {
		Init("info")
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.colorEnable = enable
	defaultLogger.rebuild()
}

// parseLevel converts a string to a zap level.
func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// rebuild recreates the zap core tee. Caller holds mu, except during Init.
func (l *Logger) rebuild() {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encCfg.CallerKey = zapcore.OmitKey
	encCfg.StacktraceKey = zapcore.OmitKey

	consoleCfg := encCfg
	if l.colorEnable {
		consoleCfg.EncodeLevel = colorLevelEncoder
	} else {
		consoleCfg.EncodeLevel = bracketLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(l.output), l.level),
	}

	if l.file != nil {
		// The file is always plain JSON so it stays free of ANSI escapes.
		fileCfg := encCfg
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(l.file), l.level))
	}

	l.sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color, ok := levelColors[level]
	if !ok {
		color = colorReset
	}
	enc.AppendString(fmt.Sprintf("%s[%s]%s", color, level.CapitalString(), colorReset))
}

func bracketLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

// log writes a log message if the level is sufficient.
func (l *Logger) log(level zapcore.Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	sugar := l.sugar
	l.mu.Unlock()

	switch level {
	case zapcore.DebugLevel:
		sugar.Debugf(format, args...)
	case zapcore.InfoLevel:
		sugar.Infof(format, args...)
	case zapcore.WarnLevel:
		sugar.Warnf(format, args...)
	case zapcore.ErrorLevel:
		sugar.Errorf(format, args...)
	case zapcore.FatalLevel:
		// Fatalf exits the process after writing.
		sugar.Fatalf(format, args...)
	}
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	if defaultLogger == nil {
		Init("info")
	}
	defaultLogger.log(zapcore.DebugLevel, format, args...)
}

// Debugf is an alias for Debug.
func Debugf(format string, args ...interface{}) {
	Debug(format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	if defaultLogger == nil {
		Init("info")
	}
	defaultLogger.log(zapcore.InfoLevel, format, args...)
}

// Infof is an alias for Info.
func Infof(format string, args ...interface{}) {
	Info(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	if defaultLogger == nil {
		Init("info")
	}
	defaultLogger.log(zapcore.WarnLevel, format, args...)
}

// Warnf is an alias for Warn.
func Warnf(format string, args ...interface{}) {
	Warn(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	if defaultLogger == nil {
		Init("info")
	}
	defaultLogger.log(zapcore.ErrorLevel, format, args...)
}

// Errorf is an alias for Error.
func Errorf(format string, args ...interface{}) {
	Error(format, args...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(format string, args ...interface{}) {
	if defaultLogger == nil {
		Init("info")
	}
	defaultLogger.log(zapcore.FatalLevel, format, args...)
}

// Fatalf is an alias for Fatal.
func Fatalf(format string, args ...interface{}) {
	Fatal(format, args...)
}
