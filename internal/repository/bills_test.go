package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

func TestResolveItemPosting(t *testing.T) {
	coa := uuid.New()
	dept := uuid.New()
	drop := uuid.New()

	t.Run("posting requires all dimensions", func(t *testing.T) {
		cases := map[string]*entity.BillItem{
			"no dimensions":      {},
			"missing department": {CoaAccountID: &coa, DropID: &drop},
			"missing drop":       {CoaAccountID: &coa, DepartmentID: &dept},
			"missing account":    {DepartmentID: &dept, DropID: &drop},
		}
		for name, it := range cases {
			t.Run(name, func(t *testing.T) {
				_, _, err := resolveItemPosting(it, true)
				require.Error(t, err)
				assert.Equal(t, 422, common.HTTPStatusFromError(err))
			})
		}
	})

	t.Run("fully dimensioned item posts", func(t *testing.T) {
		it := &entity.BillItem{CoaAccountID: &coa, DepartmentID: &dept, DropID: &drop, IsPostable: true}
		status, postable, err := resolveItemPosting(it, true)
		require.NoError(t, err)
		assert.Equal(t, constants.PostingPosted, status)
		assert.True(t, postable)
	})

	t.Run("revert clears is_postable", func(t *testing.T) {
		it := &entity.BillItem{
			CoaAccountID: &coa, DepartmentID: &dept, DropID: &drop,
			IsPostable:    true,
			PostingStatus: constants.PostingPosted,
		}
		status, postable, err := resolveItemPosting(it, false)
		require.NoError(t, err)
		assert.Equal(t, constants.PostingUnposted, status)
		assert.False(t, postable)
	})
}
