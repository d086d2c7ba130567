// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package access

import "context"

type operatorKey struct{}

// WithOperator marks ctx as driven by a host operator rather than a user,
// as the click command's --as-admin flag does. AdminPolicy reports every
// user clicking under such a context as an administrator.
func WithOperator(ctx context.Context) context.Context {
	return context.WithValue(ctx, operatorKey{}, SubjectSystem)
}

// IsOperator reports whether ctx was marked by WithOperator.
func IsOperator(ctx context.Context) bool {
	subject, _ := ctx.Value(operatorKey{}).(string)
	return subject == SubjectSystem
}
