package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
)

func TestMap(t *testing.T) {
	assert.NoError(t, svcErr.Map(nil))
	assert.Equal(t, codes.NotFound, svcErr.Code(svcErr.Map(fmt.Errorf("load: %w", gorm.ErrRecordNotFound))))
	assert.Equal(t, codes.DeadlineExceeded, svcErr.Code(svcErr.Map(context.DeadlineExceeded)))
	assert.Equal(t, codes.Internal, svcErr.Code(svcErr.Map(errors.New("boom"))))

	// already-mapped errors keep their code
	assert.Equal(t, codes.PermissionDenied, svcErr.Code(svcErr.Map(svcErr.PermissionDenied("nope"))))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{svcErr.InvalidArgument("bad"), http.StatusBadRequest, "bad"},
		{svcErr.NotFound("gone"), http.StatusNotFound, "gone"},
		{svcErr.AlreadyExists("dup"), http.StatusConflict, "dup"},
		{svcErr.PermissionDenied("onboarding required"), http.StatusForbidden, "onboarding required"},
		{svcErr.Unauthenticated("login"), http.StatusUnauthorized, "login"},
		{svcErr.ResourceExhausted("slow down"), http.StatusTooManyRequests, "slow down"},
		{svcErr.FailedPrecondition("unpaid"), http.StatusPreconditionFailed, "unpaid"},
		{errors.New("secret db detail"), http.StatusInternalServerError, "internal error"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "record not found"},
	}
	for _, c := range cases {
		code, msg := svcErr.HTTPStatus(c.err)
		assert.Equal(t, c.code, code, c.err.Error())
		assert.Equal(t, c.msg, msg)
	}
}
