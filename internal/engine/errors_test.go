package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		code Code
	}{
		{nil, OK},
		{ErrPath, CodePath},
		{ErrScan, CodeScan},
		{ErrForecast, CodeForecast},
		{ErrCleanup, CodeCleanup},
		{ErrBusy, CodeBusy},
		{ErrNoData, CodeNoData},
		{ErrDB, CodeDB},
		{errors.New("anything else"), CodeDB},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, CodeOf(tc.err))
	}
}

func TestCodeOfUnwrapsContext(t *testing.T) {
	wrapped := fmt.Errorf("%w: opening /tmp/x.db: disk full", ErrDB)
	assert.Equal(t, CodeDB, CodeOf(wrapped))

	wrapped = fmt.Errorf("%w: empty root", ErrPath)
	assert.Equal(t, CodePath, CodeOf(wrapped))
}

func TestCodesAreStable(t *testing.T) {
	assert.Equal(t, Code(0), OK)
	assert.Equal(t, Code(-1), CodeDB)
	assert.Equal(t, Code(-2), CodePath)
	assert.Equal(t, Code(-7), CodeNoData)
}
