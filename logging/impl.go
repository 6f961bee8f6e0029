package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	impl struct {
		name  string
		level AtomicLevel
		inUTC bool

		appenders []Appender
	}

	// LogEntry embeds a zapcore Entry and slice of Fields.
	LogEntry struct {
		zapcore.Entry
		fields []zapcore.Field
	}
)

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}

	return &impl{
		name:      newName,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var errs []error
	for _, appender := range imp.appenders {
		if err := appender.Sync(); err != nil {
			errs = append(errs, err)
		}
	}

	return multierr.Combine(errs...)
}

// AsZap builds a zap logger over the appenders that are themselves zap cores. Plain appenders
// (console, test) are not reachable through the returned logger.
func (imp *impl) AsZap() *zap.SugaredLogger {
	var cores []zapcore.Core
	for _, appender := range imp.appenders {
		if core, ok := appender.(zapcore.Core); ok {
			cores = append(cores, core)
		}
	}

	if len(cores) == 0 {
		return zap.NewNop().Sugar()
	}
	return zap.New(zapcore.NewTee(cores...), zap.IncreaseLevel(imp.level.Get().AsZap())).Sugar().Named(imp.name)
}

func (imp *impl) shouldLog(logLevel Level) bool {
	return logLevel >= imp.level.Get()
}

// emit builds an entry and hands it to every appender. `message` is only evaluated when `level`
// is enabled.
func (imp *impl) emit(level Level, message func() string, keysAndValues []interface{}) {
	if !imp.shouldLog(level) {
		return
	}
	entry := &LogEntry{}
	entry.Time = time.Now()
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	entry.LoggerName = imp.name
	entry.Caller = callerOf()
	entry.Level = level.AsZap()
	entry.Message = message()
	entry.fields = pairFields(keysAndValues)

	for _, appender := range imp.appenders {
		if err := appender.Write(entry.Entry, entry.fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

// pairFields reads `keysAndValues` as alternating keys and values. A trailing key without a value
// gets an error value so it still shows up.
func pairFields(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		key := fmt.Sprint(keysAndValues[idx])
		if idx+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[idx+1]))
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) {
	imp.emit(DEBUG, func() string { return fmt.Sprint(args...) }, nil)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.emit(DEBUG, func() string { return fmt.Sprintf(template, args...) }, nil)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.emit(DEBUG, func() string { return msg }, keysAndValues)
}

func (imp *impl) Info(args ...interface{}) {
	imp.emit(INFO, func() string { return fmt.Sprint(args...) }, nil)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.emit(INFO, func() string { return fmt.Sprintf(template, args...) }, nil)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.emit(INFO, func() string { return msg }, keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) {
	imp.emit(WARN, func() string { return fmt.Sprint(args...) }, nil)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.emit(WARN, func() string { return fmt.Sprintf(template, args...) }, nil)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.emit(WARN, func() string { return msg }, keysAndValues)
}

func (imp *impl) Error(args ...interface{}) {
	imp.emit(ERROR, func() string { return fmt.Sprint(args...) }, nil)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.emit(ERROR, func() string { return fmt.Sprintf(template, args...) }, nil)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.emit(ERROR, func() string { return msg }, keysAndValues)
}

// callerOf returns the frame that called the public logging method.
func callerOf() zapcore.EntryCaller {
	// callerOf <- emit <- Info/Debug/... <- caller.
	const skip = 3
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
