package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/testutil"
)

func newService(t *testing.T) (*account.Service, func(string) (int64, error)) {
	t.Helper()
	st := testutil.TestStore(t)
	tokens := testutil.Tokens(t)
	return account.NewService(st, testutil.Passwords(), tokens), tokens.Verify
}

func TestRegister(t *testing.T) {
	svc, verify := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, account.Credentials{Email: "  Ana@Example.COM ", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.Token)

	id, err := verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id)

	_, err = svc.Register(ctx, account.Credentials{Email: "ana@example.com", Password: "Other123"})
	var conflict *apperr.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := map[string]account.Credentials{
		"bad email":     {Email: "not-an-email", Password: "Secret123"},
		"short":         {Email: "a@example.com", Password: "Ab1"},
		"no upper":      {Email: "a@example.com", Password: "secret123"},
		"no lower":      {Email: "a@example.com", Password: "SECRET123"},
		"no digit":      {Email: "a@example.com", Password: "SecretPass"},
		"missing email": {Password: "Secret123"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Fields)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, verify := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, account.Credentials{Email: "bo@example.com", Password: "Secret123"})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, account.Credentials{Email: "BO@example.com", Password: "Secret123"})
	require.NoError(t, err)
	id, err := verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id)

	for _, in := range []account.Credentials{
		{Email: "bo@example.com", Password: "Wrong123"},
		{Email: "nobody@example.com", Password: "Secret123"},
	} {
		_, err := svc.Login(ctx, in)
		var ce *apperr.CredentialError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, apperr.ReasonRejected, ce.Reason)
	}

	_, err = svc.Login(ctx, account.Credentials{Email: "bo@example.com"})
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestVerifyAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, account.Credentials{Email: "cy@example.com", Password: "Secret123"})
	require.NoError(t, err)

	u, err := svc.Verify(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "cy@example.com", u.Email)

	ok, err := svc.Exists(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Delete(ctx, "CY@example.com"))

	_, err = svc.Verify(ctx, reg.User.ID)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Resource)

	assert.ErrorIs(t, svc.Delete(ctx, "cy@example.com"), apperr.ErrNotFound)
}
