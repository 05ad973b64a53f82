package repository_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/elite-matchmaking/internal/db"
	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/repository"
	"github.com/oggyb/elite-matchmaking/internal/testutil"
)

// openServerDB opens a file-backed SQLite database with the settings the
// server uses, including full-precision timestamps.
func openServerDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "elite.db")), gormlogger.Discard)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func TestAccount_GetOrCreateByEmail(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepository(testutil.NewDB(t))

	first, err := repo.GetOrCreateByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	second, err := repo.GetOrCreateByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, repo.TouchLogin(ctx, first.ID, time.Now()))
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	assert.ErrorIs(t, repo.TouchLogin(ctx, "missing", time.Now()), gorm.ErrRecordNotFound)
}

func TestOpen_TranslatesDuplicateKey(t *testing.T) {
	database := openServerDB(t)
	ctx := context.Background()

	repo := repository.NewProfileRepository(database)
	require.NoError(t, repo.Create(ctx, &db.Profile{ID: "a", Name: "Asha", Age: 25, Gender: db.GenderFemale, Country: "Latvia"}))

	err := repo.Create(ctx, &db.Profile{ID: "a", Name: "Asha", Age: 25, Gender: db.GenderFemale, Country: "Latvia"})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, codes.AlreadyExists, svcErr.Code(svcErr.Map(err)))
}

func TestMagicLink_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMagicLinkRepository(testutil.NewDB(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &db.MagicLink{
		ID: "l1", AccountID: "a", SecretHash: "h", ExpiresAt: now.Add(time.Minute),
	}))
	require.NoError(t, repo.Create(ctx, &db.MagicLink{
		ID: "l2", AccountID: "a", SecretHash: "h", ExpiresAt: now.Add(-time.Minute),
	}))

	ok, err := repo.Consume(ctx, "l1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(ctx, "l1", now)
	require.NoError(t, err)
	assert.False(t, ok, "second use must fail")

	ok, err = repo.Consume(ctx, "l2", now)
	require.NoError(t, err)
	assert.False(t, ok, "expired link must fail")

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestProfile_ListByGender(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(testutil.NewDB(t))

	for i := 0; i < 4; i++ {
		gender := db.GenderFemale
		if i%2 == 1 {
			gender = db.GenderMale
		}
		require.NoError(t, repo.Create(ctx, &db.Profile{
			ID: fmt.Sprintf("p%d", i), Name: "P", Age: 20, Gender: gender, Country: "Latvia",
		}))
	}

	rows, err := repo.ListByGender(ctx, db.GenderFemale, 50)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p0", rows[0].ID)
	assert.Equal(t, "p2", rows[1].ID)

	rows, err = repo.ListByGender(ctx, db.GenderFemale, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	byID, err := repo.GetByIDs(ctx, []string{"p1", "p3", "nope"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMatch_DeclareOncePerPair(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(testutil.NewDB(t))

	created, err := repo.Declare(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, created)

	// either order is the same pair
	created, err = repo.Declare(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = repo.Declare(ctx, "a", "c")
	require.NoError(t, err)

	n, err := repo.CountFor(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMessage_ListBetweenPaginates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(testutil.NewDB(t))

	for i := 0; i < 5; i++ {
		from, to := "a", "b"
		if i%2 == 1 {
			from, to = "b", "a"
		}
		require.NoError(t, repo.Create(ctx, &db.Message{SenderID: from, ReceiverID: to, Content: fmt.Sprintf("m%d", i)}))
	}
	// unrelated conversation
	require.NoError(t, repo.Create(ctx, &db.Message{SenderID: "a", ReceiverID: "c", Content: "other"}))

	page1, next, err := repo.ListBetween(ctx, "a", "b", nil, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.NotNil(t, next)
	assert.Equal(t, "m0", page1[0].Content)
	assert.Equal(t, "m2", page1[2].Content)

	page2, next, err := repo.ListBetween(ctx, "b", "a", next, 3)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page2, 2)
	assert.Equal(t, "m3", page2[0].Content)
	assert.Equal(t, "m4", page2[1].Content)

	bad := "!!"
	_, _, err = repo.ListBetween(ctx, "a", "b", &bad, 3)
	assert.Error(t, err)
}

func TestMessage_ListBetweenPagesWithFullPrecisionTimestamps(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(openServerDB(t))

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Create(ctx, &db.Message{SenderID: "a", ReceiverID: "b", Content: fmt.Sprintf("m%d", i)}))
	}

	contents := func(ms []db.Message) []string {
		out := make([]string, 0, len(ms))
		for _, m := range ms {
			out = append(out, m.Content)
		}
		return out
	}

	page1, next, err := repo.ListBetween(ctx, "a", "b", nil, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, []string{"m0", "m1"}, contents(page1))

	page2, next, err := repo.ListBetween(ctx, "a", "b", next, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, contents(page2))
	assert.Nil(t, next)
}

func TestPayment_MarkPaidAndUpgrade(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewDB(t)
	repo := repository.NewPaymentRepository(database)
	profiles := repository.NewProfileRepository(database)

	require.NoError(t, profiles.Create(ctx, &db.Profile{ID: "a", Name: "A", Age: 30, Gender: db.GenderMale, Country: "India"}))
	require.NoError(t, repo.Create(ctx, &db.Payment{
		OrderID: "order_1", AccountID: "a", Amount: 200, Currency: "INR", Status: db.PaymentPending,
	}))

	updated, err := repo.MarkPaidAndUpgrade(ctx, "order_1", "pay_1", time.Now())
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.MarkPaidAndUpgrade(ctx, "order_1", "pay_1", time.Now())
	require.NoError(t, err)
	assert.False(t, updated)

	p, err := profiles.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, p.IsPremium)

	pay, err := repo.GetByOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, db.PaymentPaid, pay.Status)
	assert.Equal(t, "pay_1", pay.PaymentID)

	_, err = repo.MarkPaidAndUpgrade(ctx, "missing", "pay", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
