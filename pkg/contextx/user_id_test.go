package contextx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"nft_auction/pkg/contextx"
)

func TestUserID(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	userID, err := contextx.UserIDFromContext(ctx)
	rq.Empty(userID)
	rq.ErrorIs(err, contextx.ErrNoValue)
	rq.ErrorContains(err, "user id: no value in context")

	ctx = contextx.WithUserID(ctx, "0x00000000000000000000000000000000000000A1")

	userID, err = contextx.UserIDFromContext(ctx)
	rq.NoError(err)
	rq.Equal("0x00000000000000000000000000000000000000A1", userID.String())
}
