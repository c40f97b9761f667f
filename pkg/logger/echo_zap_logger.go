package logger

import (
	"fmt"
	"io"

	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EchoZapLogger는 Echo 내부 로그(서버 시작 메시지 등)를 zap으로 보내는 echo.Logger 구현입니다.
type EchoZapLogger struct {
	logger *zap.Logger
	prefix string
	level  log.Lvl
}

// NewEchoZapLogger는 logger를 감싸는 echo.Logger를 생성합니다.
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{logger: logger, level: log.INFO}
}

func (l *EchoZapLogger) Output() io.Writer   { return zapWriter{logger: l.logger} }
func (l *EchoZapLogger) SetOutput(io.Writer) {}
func (l *EchoZapLogger) SetHeader(string)    {}
func (l *EchoZapLogger) Prefix() string      { return l.prefix }
func (l *EchoZapLogger) Level() log.Lvl      { return l.level }
func (l *EchoZapLogger) SetLevel(v log.Lvl)  { l.level = v }
func (l *EchoZapLogger) SetPrefix(p string) {
	l.prefix = p
	l.logger = l.logger.Named(p)
}

// 설정된 레벨보다 낮은 로그는 버립니다. OFF는 모두 버림
func (l *EchoZapLogger) write(lvl log.Lvl, zl zapcore.Level, msg string, fields ...zap.Field) {
	if l.level == log.OFF || lvl < l.level {
		return
	}
	if ce := l.logger.Check(zl, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *EchoZapLogger) Print(i ...interface{}) {
	l.write(log.INFO, zapcore.InfoLevel, fmt.Sprint(i...))
}
func (l *EchoZapLogger) Printf(format string, args ...interface{}) {
	l.write(log.INFO, zapcore.InfoLevel, fmt.Sprintf(format, args...))
}
func (l *EchoZapLogger) Printj(j log.JSON) {
	l.write(log.INFO, zapcore.InfoLevel, "echo", zap.Any("json", j))
}

func (l *EchoZapLogger) Debug(i ...interface{}) {
	l.write(log.DEBUG, zapcore.DebugLevel, fmt.Sprint(i...))
}
func (l *EchoZapLogger) Debugf(format string, args ...interface{}) {
	l.write(log.DEBUG, zapcore.DebugLevel, fmt.Sprintf(format, args...))
}
func (l *EchoZapLogger) Debugj(j log.JSON) {
	l.write(log.DEBUG, zapcore.DebugLevel, "echo", zap.Any("json", j))
}

func (l *EchoZapLogger) Info(i ...interface{}) {
	l.write(log.INFO, zapcore.InfoLevel, fmt.Sprint(i...))
}
func (l *EchoZapLogger) Infof(format string, args ...interface{}) {
	l.write(log.INFO, zapcore.InfoLevel, fmt.Sprintf(format, args...))
}
func (l *EchoZapLogger) Infoj(j log.JSON) {
	l.write(log.INFO, zapcore.InfoLevel, "echo", zap.Any("json", j))
}

func (l *EchoZapLogger) Warn(i ...interface{}) {
	l.write(log.WARN, zapcore.WarnLevel, fmt.Sprint(i...))
}
func (l *EchoZapLogger) Warnf(format string, args ...interface{}) {
	l.write(log.WARN, zapcore.WarnLevel, fmt.Sprintf(format, args...))
}
func (l *EchoZapLogger) Warnj(j log.JSON) {
	l.write(log.WARN, zapcore.WarnLevel, "echo", zap.Any("json", j))
}

func (l *EchoZapLogger) Error(i ...interface{}) {
	l.write(log.ERROR, zapcore.ErrorLevel, fmt.Sprint(i...))
}
func (l *EchoZapLogger) Errorf(format string, args ...interface{}) {
	l.write(log.ERROR, zapcore.ErrorLevel, fmt.Sprintf(format, args...))
}
func (l *EchoZapLogger) Errorj(j log.JSON) {
	l.write(log.ERROR, zapcore.ErrorLevel, "echo", zap.Any("json", j))
}

// Fatal과 Panic 계열은 레벨 설정과 무관하게 기록 후 종료/패닉합니다.
func (l *EchoZapLogger) Fatal(i ...interface{}) { l.logger.Fatal(fmt.Sprint(i...)) }
func (l *EchoZapLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatal(fmt.Sprintf(format, args...))
}
func (l *EchoZapLogger) Fatalj(j log.JSON)      { l.logger.Fatal("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Panic(i ...interface{}) { l.logger.Panic(fmt.Sprint(i...)) }
func (l *EchoZapLogger) Panicf(format string, args ...interface{}) {
	l.logger.Panic(fmt.Sprintf(format, args...))
}
func (l *EchoZapLogger) Panicj(j log.JSON) { l.logger.Panic("echo", zap.Any("json", j)) }

// zapWriter는 Echo가 Output()으로 직접 쓰는 내용을 INFO 로그로 남깁니다.
type zapWriter struct {
	logger *zap.Logger
}

func (w zapWriter) Write(p []byte) (int, error) {
	w.logger.Info(string(p))
	return len(p), nil
}
