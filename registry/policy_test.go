package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/provsec/chainregistry/interfaces"
)

func TestOpenPolicy(t *testing.T) {
	record := interfaces.Record{ID: testRecordID(0x01), CreatedBy: testIdentity(0x01), Exists: true}

	// The open policy accepts any caller, including the null identity.
	assert.NoError(t, OpenPolicy{}.Authorize(testIdentity(0x01), record))
	assert.NoError(t, OpenPolicy{}.Authorize(testIdentity(0x02), record))
	assert.NoError(t, OpenPolicy{}.Authorize(interfaces.Identity{}, record))
	assert.Equal(t, "open", OpenPolicy{}.Name())
}

func TestCreatorOnlyPolicy(t *testing.T) {
	creator := testIdentity(0x01)
	record := interfaces.Record{ID: testRecordID(0x01), CreatedBy: creator, Exists: true}

	assert.NoError(t, CreatorOnlyPolicy{}.Authorize(creator, record))

	err := CreatorOnlyPolicy{}.Authorize(testIdentity(0x02), record)
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorized)
	assert.Equal(t, "creator-only", CreatorOnlyPolicy{}.Name())
}
