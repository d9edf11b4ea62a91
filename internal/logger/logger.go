// Package logger wraps the standard logger with the trace context of the
// current request so log lines can be joined with traces.
package logger

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/trace"
)

func Printf(ctx context.Context, format string, args ...interface{}) {
	log.Print(prefix(ctx) + fmt.Sprintf(format, args...))
}

func Println(ctx context.Context, args ...interface{}) {
	log.Print(prefix(ctx) + fmt.Sprintln(args...))
}

func prefix(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return fmt.Sprintf("trace_id=%s span_id=%s ", sc.TraceID(), sc.SpanID())
}
