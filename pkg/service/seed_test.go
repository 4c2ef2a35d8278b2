package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed()
	f.seed()

	staff, err := f.staff.Count(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, staff)

	agents, err := f.agents.Count(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, agents)

	products, err := f.products.Count(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, products)
}
