package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyfeed/internal/images"
)

// fakePublisher records calls and returns a fixed error.
type fakePublisher struct {
	name  string
	err   error
	calls int
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Publish(ctx context.Context, text string, img *images.Image) error {
	f.calls++
	return f.err
}

func TestPublishAllIndependentOutcomes(t *testing.T) {
	a := &fakePublisher{name: "a", err: errors.New("auth failed")}
	b := &fakePublisher{name: "b"}

	outcomes := PublishAll(context.Background(), []Publisher{a, b}, "post text", nil)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "a", outcomes[0].Platform)
	assert.False(t, outcomes[0].OK)
	assert.Error(t, outcomes[0].Err)

	assert.Equal(t, "b", outcomes[1].Platform)
	assert.True(t, outcomes[1].OK)
	assert.NoError(t, outcomes[1].Err)

	// A's failure never prevented attempting B.
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestAnySuccess(t *testing.T) {
	assert.True(t, AnySuccess([]Outcome{{Platform: "a", OK: false}, {Platform: "b", OK: true}}))
	assert.False(t, AnySuccess([]Outcome{{Platform: "a"}, {Platform: "b"}}))
	assert.False(t, AnySuccess(nil))
}
