package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hudtoast/internal/model"
)

type recordingPoster struct {
	requests []model.Request
	err      error
}

func (p *recordingPoster) post(req model.Request) (string, error) {
	p.requests = append(p.requests, req)
	return "id", p.err
}

func newTestNotifier() (*InternalNotifier, *recordingPoster, *time.Time) {
	n := NewInternalNotifier(nil)
	p := &recordingPoster{}
	now := epoch
	n.now = func() time.Time { return now }
	n.SetPoster(p.post)
	return n, p, &now
}

func TestInternalNotifier_Posts(t *testing.T) {
	n, p, _ := newTestNotifier()

	n.NotifyConfigError(errors.New("bad volume"))
	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, model.TypeWarning, req.Type)
	assert.Equal(t, "Configuration Error", req.Title)
	assert.Equal(t, "Failed to reload configuration: bad volume", req.Message)
	assert.Equal(t, 5000, req.Duration)
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	n, p, now := newTestNotifier()

	n.NotifyConfigReloaded()
	n.NotifyConfigReloaded()
	assert.Len(t, p.requests, 1)

	// A different key is not limited.
	n.NotifyStartup("1.0.0")
	assert.Len(t, p.requests, 2)

	*now = now.Add(5 * time.Second)
	n.NotifyConfigReloaded()
	assert.Len(t, p.requests, 3)
}

func TestInternalNotifier_Disabled(t *testing.T) {
	n, p, _ := newTestNotifier()
	n.SetEnabled(false)
	n.NotifyStartup("1.0.0")
	assert.Empty(t, p.requests)
}

func TestInternalNotifier_NoPoster(t *testing.T) {
	n := NewInternalNotifier(nil)
	assert.NotPanics(t, func() { n.NotifyStartup("1.0.0") })
}

func TestInternalNotifier_PostError(t *testing.T) {
	n, p, _ := newTestNotifier()
	p.err = errors.New("store closed")
	assert.NotPanics(t, func() { n.NotifyHostError(errors.New("timeout")) })
	require.Len(t, p.requests, 1)
	assert.Equal(t, model.TypeError, p.requests[0].Type)
}

func TestNotificationLevel_Type(t *testing.T) {
	assert.Equal(t, model.TypeInfo, NotificationLevelInfo.Type())
	assert.Equal(t, model.TypeWarning, NotificationLevelWarning.Type())
	assert.Equal(t, model.TypeError, NotificationLevelError.Type())
}
