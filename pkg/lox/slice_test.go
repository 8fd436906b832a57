package lox_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"nft_market/pkg/lox"
)

func TestMapErr(t *testing.T) {
	rq := require.New(t)

	result, err := lox.MapErr([]string{"1", "2", "3"}, strconv.Atoi)
	rq.NoError(err)
	rq.Equal([]int{1, 2, 3}, result)

	errBad := errors.New("bad")

	result, err = lox.MapErr([]string{"1", "x"}, func(s string) (int, error) {
		if s == "x" {
			return 0, errBad
		}

		return strconv.Atoi(s)
	})
	rq.ErrorIs(err, errBad)
	rq.Nil(result)
}
