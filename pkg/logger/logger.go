package logger

// LoggerInstance is a logging backend. The facade fans every call out to all
// registered instances so the server can log to the console and, later, to
// files or collectors without touching call sites.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

type Logger struct {
	instances []LoggerInstance
}

var singleton *Logger

// Init installs the global logger backends. Call once at process start,
// before any logging function is used.
func Init(instances ...LoggerInstance) {
	singleton = &Logger{instances: instances}
}

func each(fn func(LoggerInstance)) {
	if singleton == nil {
		return
	}
	for _, instance := range singleton.instances {
		fn(instance)
	}
}

// Log writes a message at the default level.
func Log(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Log(message, keyvals...) })
}

// Debug writes a message at DEBUG level.
func Debug(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Debug(message, keyvals...) })
}

// Info writes a message at INFO level.
func Info(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Info(message, keyvals...) })
}

// Warn writes a message at WARN level.
func Warn(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level.
func Error(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Error(message, keyvals...) })
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Fatal(message, keyvals...) })
}
