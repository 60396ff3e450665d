// Package logging builds the gateway's log/slog logger.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, uuid.NewString())
//	logger.InfoContext(ctx, "submitted") // includes request_id
//
// Context fields (request ID, feature, provider) are attached by the handler,
// so any slog call that passes a context picks them up.
//
// # Redaction
//
// With RedactSecrets enabled, provider API keys and bearer tokens are masked
// in string attribute values, and attributes named like credentials are
// replaced wholesale.
package logging
