// Package auditcontext carries request details recorded on audit logs.
package auditcontext

import "context"

type ipKey struct{}
type userAgentKey struct{}

func WithRequestInfo(ctx context.Context, ipAddress, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ipKey{}, ipAddress)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func IPAddressFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(ipKey{}).(string)
	return value
}

func UserAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(userAgentKey{}).(string)
	return value
}
