package authbff

import (
	"encoding/base64"
	"math/big"
	"net/http"

	"github.com/ldp-wms/tenant-core/internal/httpkit"
	"github.com/ldp-wms/tenant-core/internal/jwtverify"
)

// PublicJWK returns this issuer's public key in JWKS form, so the
// gateway's jwtverify.Verifier can fetch it from /.well-known/
// jwks.json rather than sharing the private key out of band.
func (iss *Issuer) PublicJWK() jwtverify.JWK {
	pub := iss.privateKey.PublicKey
	return jwtverify.JWK{
		Kty: "RSA",
		Kid: iss.kid,
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// JWKSHandler serves GET /.well-known/jwks.json.
func JWKSHandler(iss *Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpkit.RespondJSON(w, http.StatusOK, jwtverify.JWKS{Keys: []jwtverify.JWK{iss.PublicJWK()}})
	}
}
