// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hashicorp/cap-line/line"
	"github.com/stretchr/testify/require"
)

// testSuccessFn is a test SuccessResponseFunc
func testSuccessFn(state string, id *line.Identity, w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login successful: " + id.UID))
}

// testFailFn is a test ErrorResponseFunc
func testFailFn(state string, r *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request) {
	if e != nil {
		w.WriteHeader(http.StatusInternalServerError)
		j, _ := json.Marshal(&AuthenErrorResponse{
			Error:       "internal-callback-error",
			Description: e.Error(),
		})
		_, _ = w.Write(j)
		return
	}
	if r != nil {
		w.WriteHeader(http.StatusUnauthorized)
		j, _ := json.Marshal(r)
		_, _ = w.Write(j)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	j, _ := json.Marshal(&AuthenErrorResponse{
		Error: "unknown-callback-error",
	})
	_, _ = w.Write(j)
}

// testNewProvider creates a new Provider for the TestProvider (tp).  This is
// helpful internally, but intentionally not exported.
func testNewProvider(t *testing.T, tp *line.TestProvider, opt ...line.Option) *line.Provider {
	t.Helper()
	require := require.New(t)
	id, secret := tp.ClientCreds()
	c, err := line.NewConfig(id, secret, "", append(tp.ConfigOptions(), opt...)...)
	require.NoError(err)
	p, err := line.NewProvider(c)
	require.NoError(err)
	t.Cleanup(p.Done)
	return p
}

// testSession is an in-memory Session which counts its saves.
type testSession struct {
	*line.MapSession
	saves int
}

func (s *testSession) Save() error {
	s.saves++
	return nil
}

// testSessionFunc returns a SessionFunc which always returns s.
func testSessionFunc(s *testSession) SessionFunc {
	return func(http.ResponseWriter, *http.Request) (Session, error) {
		return s, nil
	}
}
