package ingest

import (
	"errors"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{transport.ErrRepositoryNotFound, ErrRepoNotFound},
		{plumbing.ErrReferenceNotFound, ErrRepoNotFound},
		{git.NoMatchingRefSpecError{}, ErrRepoNotFound},
		{transport.ErrAuthenticationRequired, ErrAuthRequired},
		{transport.ErrAuthorizationFailed, ErrAuthRequired},
	}
	for i, tc := range cases {
		assert.ErrorIs(t, classify(tc.in), tc.want, "case %d", i)
	}

	other := classify(errors.New("connection reset"))
	assert.NotErrorIs(t, other, ErrRepoNotFound)
	assert.NotErrorIs(t, other, ErrAuthRequired)
	assert.Contains(t, other.Error(), "connection reset")
}
