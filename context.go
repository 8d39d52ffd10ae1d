package tenauth

import "context"

type deviceIDContextKey struct{}
type flowIDContextKey struct{}

// WithDeviceID attaches a device identifier to ctx. The Engine copies it
// into audit events so a single device's flows can be correlated across
// sessions.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey{}, deviceID)
}

// WithFlowID overrides the generated flow identifier for audit events
// emitted under ctx. Useful when the caller already tracks a request ID.
func WithFlowID(ctx context.Context, flowID string) context.Context {
	return context.WithValue(ctx, flowIDContextKey{}, flowID)
}

func deviceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	deviceID, _ := ctx.Value(deviceIDContextKey{}).(string)
	return deviceID
}

func flowIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	flowID, _ := ctx.Value(flowIDContextKey{}).(string)
	return flowID
}
