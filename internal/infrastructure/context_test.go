package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetTraceID(ctx))

	ctx = WithTraceID(ctx, "abc-123")
	assert.Equal(t, "abc-123", GetTraceID(ctx))

	fresh := WithNewTraceID(context.Background())
	assert.NotEmpty(t, GetTraceID(fresh))
	assert.NotEqual(t, GetTraceID(ctx), GetTraceID(fresh))
}
