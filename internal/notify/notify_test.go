package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blog-comments-api/internal/config"
	"github.com/blog-comments-api/internal/metrics"
	"github.com/blog-comments-api/internal/models"
)

func sampleNotice() models.RejectionNotice {
	return models.RejectionNotice{
		CommentID:   "c1",
		Content:     "Compre <b>relojes</b> aquí",
		PostTitle:   "Vinos de Uruguay",
		AuthorName:  "Spammer",
		AuthorEmail: "spam@example.com",
		Reason:      "off-topic promotional content",
		Date:        time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC),
	}
}

func notifyConfig(url string) config.NotifyConfig {
	return config.NotifyConfig{
		ResendAPIKey:     "re_test",
		ResendURL:        url,
		From:             "notifications@raphauy.dev",
		AppName:          "gabizimmer.com",
		AppURL:           "https://gabizimmer.com/",
		PrimaryRecipient: "gabi@gabizimmer.com",
		CopyRecipient:    "ops@example.com",
	}
}

func TestEmailSender_DevModeOnlyLogs(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	sender := NewEmailSender(notifyConfig(srv.URL), false, zerolog.Nop())
	res := sender.Send(context.Background(), sampleNotice())

	assert.True(t, res.Success)
	assert.Equal(t, DevModeEmailID, res.EmailID)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestEmailSender_Production(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"em_123"}`))
	}))
	defer srv.Close()

	sender := NewEmailSender(notifyConfig(srv.URL), true, zerolog.Nop())
	res := sender.Send(context.Background(), sampleNotice())

	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, "em_123", res.EmailID)
	assert.Equal(t, []string{"gabi@gabizimmer.com"}, got.To)
	assert.Equal(t, []string{"ops@example.com"}, got.CC)
	assert.Equal(t, "gabizimmer.com <notifications@raphauy.dev>", got.From)
	assert.Contains(t, got.Subject, "Vinos de Uruguay")
	assert.Contains(t, got.HTML, "off-topic promotional content")
	assert.Contains(t, got.HTML, "09/03/2024 18:30")
	assert.Contains(t, got.HTML, "https://gabizimmer.com/admin/comments")
	assert.Contains(t, got.HTML, "&lt;b&gt;relojes&lt;/b&gt;", "comment content must be escaped")
}

func TestEmailSender_ProductionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	res := NewEmailSender(notifyConfig(srv.URL), true, zerolog.Nop()).Send(context.Background(), sampleNotice())

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrSendFailed)
}

type recordingSender struct {
	mu      sync.Mutex
	notices []models.RejectionNotice
	ctxErrs []error
	fn      func(notice models.RejectionNotice) models.SendResult
}

func (s *recordingSender) Send(ctx context.Context, notice models.RejectionNotice) models.SendResult {
	s.mu.Lock()
	s.notices = append(s.notices, notice)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(notice)
	}
	return models.SendResult{Success: true, EmailID: "id"}
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func TestDispatcher_DeliversAll(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 2, 16, time.Second, zerolog.Nop())

	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), sampleNotice())
	}
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 10, sender.count())
}

func TestDispatcher_SurvivesRequestCancellation(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 1, 4, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx, sampleNotice())
	cancel()
	require.NoError(t, d.Stop(context.Background()))

	require.Equal(t, 1, sender.count())
	assert.NoError(t, sender.ctxErrs[0])
}

func TestDispatcher_AbsorbsFailuresAndPanics(t *testing.T) {
	var n int32
	sender := &recordingSender{fn: func(models.RejectionNotice) models.SendResult {
		if atomic.AddInt32(&n, 1) == 1 {
			panic("boom")
		}
		return models.SendResult{Err: errors.New("smtp down")}
	}}
	d := NewDispatcher(sender, 1, 4, time.Second, zerolog.Nop())

	d.Notify(context.Background(), sampleNotice())
	d.Notify(context.Background(), sampleNotice())
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 2, sender.count())
}

func TestDispatcher_DropsAfterStop(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 1, 4, time.Second, zerolog.Nop())
	require.NoError(t, d.Stop(context.Background()))

	d.Notify(context.Background(), sampleNotice())

	assert.Zero(t, sender.count())
}

func TestDispatcher_StopHonorsDeadline(t *testing.T) {
	release := make(chan struct{})
	sender := &recordingSender{fn: func(models.RejectionNotice) models.SendResult {
		<-release
		return models.SendResult{Success: true}
	}}
	d := NewDispatcher(sender, 1, 4, time.Minute, zerolog.Nop())
	d.Notify(context.Background(), sampleNotice())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_DropsWhenQueueIsFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	sender := &recordingSender{fn: func(models.RejectionNotice) models.SendResult {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return models.SendResult{Success: true}
	}}
	d := NewDispatcher(sender, 1, 1, time.Minute, zerolog.Nop())
	overflow := metrics.NotificationsTotal.WithLabelValues("overflow")
	before := testutil.ToFloat64(overflow)

	// The only worker is busy with the first notice
	d.Notify(context.Background(), sampleNotice())
	<-started

	d.Notify(context.Background(), sampleNotice())
	d.Notify(context.Background(), sampleNotice())
	d.Notify(context.Background(), sampleNotice())

	assert.Equal(t, before+2, testutil.ToFloat64(overflow))

	close(release)
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 2, sender.count())
}
