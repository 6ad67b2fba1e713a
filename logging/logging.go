// Package logging provides the structured loggers shared by the
// connection, orm and migration packages.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"
)

// PrettyJSONHandler pretty-prints JSON log lines for local development. Handle
// writes the record's time (RFC 3339), level, message and top-level
// attributes as one indented JSON object; loggers derived from it with With
// or WithGroup use the embedded slog.JSONHandler and write compact lines.
type PrettyJSONHandler struct {
	*slog.JSONHandler
	writer io.Writer
}

func (h *PrettyJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	attrs["time"] = r.Time.Format(time.RFC3339)
	attrs["level"] = r.Level.String()
	attrs["msg"] = r.Message

	prettyJSON, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return err
	}

	_, err = h.writer.Write(append(prettyJSON, '\n'))
	return err
}

func newPrettyJSONHandler() *PrettyJSONHandler {
	return &PrettyJSONHandler{
		JSONHandler: slog.NewJSONHandler(os.Stdout, nil),
		writer:      os.Stdout,
	}
}

// ProdLogger emits compact JSON lines, suitable for log aggregation.
var ProdLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// DevLogger pretty-prints the same records for a local terminal.
var DevLogger = slog.New(newPrettyJSONHandler())

// QueriesChannel is the slog logger channel every connection's query log
// is tagged with, matching the fixed channel name the resolver documents.
const QueriesChannel = "ormforge.connection.queries"

// QueryLogger wraps a base logger with the queries channel and a connection
// name, so every record a connection emits is attributable to it.
func QueryLogger(base *slog.Logger, connectionName string) *slog.Logger {
	return base.With(
		slog.String("channel", QueriesChannel),
		slog.String("connection", connectionName),
	)
}
