// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		caPEM       string
		timeout     time.Duration
		wantErr     bool
		wantIsErr   error
		wantRootCAs bool
	}{
		{
			name:    "system-ca",
			timeout: 5 * time.Second,
		},
		{
			name:        "valid-ca",
			caPEM:       testCA(t),
			wantRootCAs: true,
		},
		{
			name:      "invalid-ca",
			caPEM:     "not a pem",
			wantErr:   true,
			wantIsErr: ErrInvalidCertificatePem,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewClient(tt.caPEM, tt.timeout)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.timeout, got.Timeout)
			tr, ok := got.Transport.(*http.Transport)
			require.True(ok)
			if tt.wantRootCAs {
				require.NotNil(tr.TLSClientConfig)
				assert.NotNil(tr.TLSClientConfig.RootCAs)
			}
		})
	}
}

func TestOidcClientContext(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := &http.Client{}
	ctx := OidcClientContext(context.Background(), c)
	assert.Equal(c, ctx.Value(oauth2.HTTPClient))
}

func testCA(t *testing.T) string {
	t.Helper()
	require := require.New(t)
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"Acme Co"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Minute),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	require.NoError(err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}
