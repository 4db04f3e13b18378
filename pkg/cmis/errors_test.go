package cmis_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

func TestErrorf(t *testing.T) {
	err := cmis.Errorf(cmis.ErrObjectNotFound, "no object %q", "abc")
	assert.ErrorIs(t, err, cmis.ErrObjectNotFound)
	assert.Equal(t, `object not found: no object "abc"`, err.Error())
}

func TestKind(t *testing.T) {
	assert.Nil(t, cmis.Kind(nil))
	assert.Nil(t, cmis.Kind(errors.New("plain")))

	base := cmis.Errorf(cmis.ErrUpdateConflict, "stale token")
	wrapped := &cmis.RepositoryError{
		RepositoryID: "r1",
		Op:           "updateProperties",
		Err:          &cmis.ObjectError{ObjectID: "o1", Op: "update", Err: base},
	}
	assert.Equal(t, cmis.ErrUpdateConflict, cmis.Kind(wrapped))
	assert.Equal(t, cmis.ErrVersioning, cmis.Kind(fmt.Errorf("checkin: %w", cmis.ErrVersioning)))
}

func TestErrorMessages(t *testing.T) {
	objErr := &cmis.ObjectError{ObjectID: "o1", Op: "delete", Err: cmis.ErrConstraint}
	assert.Equal(t, "object operation delete failed for object o1: constraint violation", objErr.Error())
	assert.ErrorIs(t, objErr, cmis.ErrConstraint)

	repoErr := &cmis.RepositoryError{RepositoryID: "r1", Op: "query", Err: objErr}
	assert.Equal(t, "repository operation query failed for repository r1: "+objErr.Error(), repoErr.Error())

	var target *cmis.ObjectError
	assert.True(t, errors.As(repoErr, &target))
	assert.Equal(t, "o1", target.ObjectID)
}
