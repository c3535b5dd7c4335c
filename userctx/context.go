package userctx

import "context"

// Context key type
type contextKey string

const operatorKey contextKey = "operator"

// Operator is the signed-in operator, if any
type Operator struct {
	ID    string
	Email string
	Name  string
}

// SetOperator adds the operator to the request context
func SetOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// GetOperator retrieves the operator from the request context
func GetOperator(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorKey).(Operator)
	return op, ok
}

// GetUserEmail retrieves the operator email, "anonymous" when nobody is signed in
func GetUserEmail(ctx context.Context) string {
	if op, ok := GetOperator(ctx); ok && op.Email != "" {
		return op.Email
	}
	return "anonymous"
}

// GetDisplayName returns the best available name for the operator
func GetDisplayName(ctx context.Context) string {
	op, ok := GetOperator(ctx)
	if !ok {
		return ""
	}
	switch {
	case op.Name != "":
		return op.Name
	case op.Email != "":
		return op.Email
	default:
		return op.ID
	}
}
