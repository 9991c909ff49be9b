package utils

import (
	"context"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func GenerateTraceId() string {
	return uuid.New().String()
}

// ExtractServiceName returns the deployment name used to tag log entries.
func ExtractServiceName() string {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "main"
	}
	return service
}

func logEntry(entry *log.Entry, level, message string) {
	switch level {
	case "debug":
		entry.Debug(message)
	case "info":
		entry.Info(message)
	case "warn":
		entry.Warn(message)
	case "error":
		entry.Error(message)
	case "fatal":
		entry.Fatal(message)
	case "panic":
		entry.Panic(message)
	default:
		entry.Info(message)
	}
}

// LogMessage logs outside of a request, tagged with the service name only.
func LogMessage(level, message string) {
	entry := log.WithFields(log.Fields{
		"service": ExtractServiceName(),
	})

	logEntry(entry, level, message)
}

// LogMessageWithFields logs the message tagged with the trace id of the request, if there is one.
func LogMessageWithFields(ctx context.Context, level, message string) {
	fields := log.Fields{
		"service": ExtractServiceName(),
	}
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok {
		traceId, ok = ctx.Value(TraceIdKey.String()).(string)
	}
	if ok {
		fields["traceId"] = traceId
	}

	logEntry(log.WithFields(fields), level, message)
}

func LogMessageWithFieldsAndError(ctx context.Context, level, message string, err error) {
	LogMessageWithFields(ctx, level, message+": "+err.Error())
}

// SetLogLevel configures the global logger from the LOG_LEVEL setting.
func SetLogLevel(logLevel string) {
	switch logLevel {
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
	case "INFO":
		log.SetLevel(log.InfoLevel)
	case "WARN":
		log.SetLevel(log.WarnLevel)
	case "ERROR":
		log.SetLevel(log.ErrorLevel)
	case "FATAL":
		log.SetLevel(log.FatalLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	log.SetReportCaller(true)

	log.SetOutput(os.Stdout)
}
