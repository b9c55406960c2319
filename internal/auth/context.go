package auth

import "context"

type subjectKey struct{}

// AnonymousSubject stands in for the caller when auth is disabled.
const AnonymousSubject = "anonymous"

func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}
