package session_test

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/oggyb/elite-matchmaking/internal/app"
	"github.com/oggyb/elite-matchmaking/internal/db"
	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/service/session"
	"github.com/oggyb/elite-matchmaking/internal/testutil"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

type outbox struct {
	mu    sync.Mutex
	links map[string]string
}

func (o *outbox) SendMagicLink(_ context.Context, to, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.links == nil {
		o.links = map[string]string{}
	}
	o.links[to] = link
	return nil
}

func (o *outbox) last(t *testing.T, to string) *url.URL {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	u, err := url.Parse(o.links[to])
	require.NoError(t, err)
	return u
}

func newService(t *testing.T) (*session.Service, *outbox, *app.AppContext) {
	t.Helper()
	appCtx := testutil.NewAppContext(t)
	mail := &outbox{}
	return session.NewService(appCtx, mail, realtime.NewNotifier(appCtx.RedisCache, appCtx.Logger)), mail, appCtx
}

func signIn(t *testing.T, svc *session.Service, mail *outbox, email string) *session.Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.RequestLink(ctx, email, "http://localhost:5173"))
	token := mail.last(t, email).Query().Get("token")
	sess, err := svc.Callback(ctx, token)
	require.NoError(t, err)
	return sess
}

func TestRequestLink_SendsCallbackLink(t *testing.T) {
	svc, mail, _ := newService(t)

	require.NoError(t, svc.RequestLink(context.Background(), " Asha@Example.com ", "https://elite.example/discover"))

	u := mail.last(t, "asha@example.com")
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "elite.example", u.Host)
	assert.Equal(t, session.CallbackPath, u.Path)
	assert.Contains(t, u.Query().Get("token"), ".")
}

func TestRequestLink_UnknownOriginFallsBack(t *testing.T) {
	svc, mail, _ := newService(t)

	require.NoError(t, svc.RequestLink(context.Background(), "a@example.com", "https://evil.example"))
	assert.Equal(t, "localhost:5173", mail.last(t, "a@example.com").Host)
}

func TestRequestLink_InvalidEmail(t *testing.T) {
	svc, _, _ := newService(t)

	err := svc.RequestLink(context.Background(), "not-an-email", "")
	assert.Equal(t, codes.InvalidArgument, svcErr.Code(err))
}

func TestRequestLink_RateLimited(t *testing.T) {
	svc, _, appCtx := newService(t)
	ctx := context.Background()

	for i := 0; i < appCtx.Config.Auth.LinkRateLimit; i++ {
		require.NoError(t, svc.RequestLink(ctx, "a@example.com", ""))
	}
	err := svc.RequestLink(ctx, "a@example.com", "")
	assert.Equal(t, codes.ResourceExhausted, svcErr.Code(err))

	// other addresses are unaffected
	assert.NoError(t, svc.RequestLink(ctx, "b@example.com", ""))
}

func TestCallback_SingleUse(t *testing.T) {
	svc, mail, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestLink(ctx, "a@example.com", ""))
	token := mail.last(t, "a@example.com").Query().Get("token")

	sess, err := svc.Callback(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "a@example.com", sess.Account.Email)
	assert.NotNil(t, sess.Account.LastLoginAt)

	_, err = svc.Callback(ctx, token)
	assert.Equal(t, codes.Unauthenticated, svcErr.Code(err))
}

func TestCallback_BadTokens(t *testing.T) {
	svc, mail, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestLink(ctx, "a@example.com", ""))
	token := mail.last(t, "a@example.com").Query().Get("token")
	id, _, _ := strings.Cut(token, ".")

	for _, bad := range []string{"", "nodot", id + ".wrong-secret", "missing.secret"} {
		_, err := svc.Callback(ctx, bad)
		assert.Equal(t, codes.Unauthenticated, svcErr.Code(err), bad)
	}
}

func TestAuthenticate_GateProgression(t *testing.T) {
	svc, mail, appCtx := newService(t)
	ctx := context.Background()
	sess := signIn(t, svc, mail, "a@example.com")

	v, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, viewer.GateOnboarding, viewer.Gate(v))

	require.NoError(t, appCtx.DB.Create(&db.Profile{
		ID: sess.Account.ID, Name: "Asha", Age: 25, Gender: db.GenderMale, Country: "India",
	}).Error)

	v, err = svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, viewer.GateApp, viewer.Gate(v))

	_, err = svc.Authenticate(ctx, "garbage")
	assert.Equal(t, codes.Unauthenticated, svcErr.Code(err))
}

func TestSignOut_RevokesAndNotifies(t *testing.T) {
	svc, mail, appCtx := newService(t)
	ctx := context.Background()
	sess := signIn(t, svc, mail, "a@example.com")

	v, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)

	sub, err := realtime.NewNotifier(appCtx.RedisCache, appCtx.Logger).Subscribe(ctx, v.ID())
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.SignOut(ctx, v))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, realtime.TypeSessionEnded, ev.Type)
		assert.Equal(t, v.Claims.SessionID(), ev.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("no session_ended event")
	}

	_, err = svc.Authenticate(ctx, sess.Token)
	assert.Equal(t, codes.Unauthenticated, svcErr.Code(err))

	// a fresh sign-in still works
	sess2 := signIn(t, svc, mail, "a@example.com")
	_, err = svc.Authenticate(ctx, sess2.Token)
	assert.NoError(t, err)
}

func TestPurgeLinks(t *testing.T) {
	svc, mail, _ := newService(t)
	signIn(t, svc, mail, "a@example.com")

	n, err := svc.PurgeLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
