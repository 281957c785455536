package keymaterial

import (
	"bytes"
	encoding_asn1 "encoding/asn1"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// OIDNamedCurveP256 identifies prime256v1 / secp256r1, the only curve the
// fixed offset layout describes.
var OIDNamedCurveP256 = encoding_asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}

// uncompressedPoint is the SEC1 prefix byte of an uncompressed public point.
const uncompressedPoint = 0x04

// SEC1Key is an ECPrivateKey structure (RFC 5915) decoded field by field.
type SEC1Key struct {
	Version int

	// Private is the OCTET STRING private scalar
	Private []byte

	// Curve is the named curve from the [0] parameters, nil when absent
	Curve encoding_asn1.ObjectIdentifier

	// PublicPoint is the content of the [1] BIT STRING, nil when absent
	PublicPoint []byte
}

// ParseSEC1 decodes der as an ECPrivateKey:
//
//	ECPrivateKey ::= SEQUENCE {
//	  version        INTEGER { ecPrivkeyVer1(1) },
//	  privateKey     OCTET STRING,
//	  parameters [0] ECParameters OPTIONAL,
//	  publicKey  [1] BIT STRING OPTIONAL
//	}
func ParseSEC1(der []byte) (*SEC1Key, error) {
	input := cryptobyte.String(der)

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) {
		return nil, errors.New("not an ASN.1 SEQUENCE")
	}
	if !input.Empty() {
		return nil, errors.New("trailing data after ECPrivateKey")
	}

	key := &SEC1Key{}
	if !seq.ReadASN1Integer(&key.Version) {
		return nil, errors.New("malformed version")
	}
	if key.Version != 1 {
		return nil, errors.New("unsupported ECPrivateKey version")
	}

	var priv cryptobyte.String
	if !seq.ReadASN1(&priv, asn1.OCTET_STRING) {
		return nil, errors.New("malformed private key OCTET STRING")
	}
	key.Private = []byte(priv)

	var params cryptobyte.String
	var hasParams bool
	if !seq.ReadOptionalASN1(&params, &hasParams, asn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, errors.New("malformed curve parameters")
	}
	if hasParams {
		var oid encoding_asn1.ObjectIdentifier
		if !params.ReadASN1ObjectIdentifier(&oid) {
			return nil, errors.New("curve parameters are not a named curve")
		}
		key.Curve = oid
	}

	var pubWrapper cryptobyte.String
	var hasPub bool
	if !seq.ReadOptionalASN1(&pubWrapper, &hasPub, asn1.Tag(1).Constructed().ContextSpecific()) {
		return nil, errors.New("malformed public key wrapper")
	}
	if hasPub {
		var bits encoding_asn1.BitString
		if !pubWrapper.ReadASN1BitString(&bits) {
			return nil, errors.New("malformed public key BIT STRING")
		}
		key.PublicPoint = bits.RightAlign()
	}

	if !seq.Empty() {
		return nil, errors.New("unexpected fields in ECPrivateKey")
	}

	return key, nil
}

// CheckLayout decodes der structurally and confirms that the tagged fields
// sit exactly where FromDER slices them. Keys on other curves, keys without
// parameters or public point, and compressed points all fail here even
// though FromDER would happily slice them.
func CheckLayout(der []byte) error {
	key, err := ParseSEC1(der)
	if err != nil {
		return &LayoutMismatchError{Field: "ECPrivateKey", Reason: "not a valid SEC1 structure", Err: err}
	}

	if len(key.Private) != ScalarSize {
		return &LayoutMismatchError{Field: "privateKey", Reason: "private scalar is not 32 bytes"}
	}
	if key.Curve == nil {
		return &LayoutMismatchError{Field: "parameters", Reason: "curve parameters are absent"}
	}
	if !key.Curve.Equal(OIDNamedCurveP256) {
		return &LayoutMismatchError{Field: "parameters", Reason: "curve " + key.Curve.String() + " is not P-256"}
	}
	if len(key.PublicPoint) != 1+2*ScalarSize || key.PublicPoint[0] != uncompressedPoint {
		return &LayoutMismatchError{Field: "publicKey", Reason: "public key is not an uncompressed P-256 point"}
	}

	km, err := FromDER(der)
	if err != nil {
		return &LayoutMismatchError{Field: "ECPrivateKey", Reason: "buffer shorter than the fixed layout", Err: err}
	}
	if !bytes.Equal(km.Private[:], key.Private) {
		return &LayoutMismatchError{Field: "privateKey", Reason: "private scalar is not at offset 7"}
	}
	if !bytes.Equal(km.PublicKey(), key.PublicPoint[1:]) {
		return &LayoutMismatchError{Field: "publicKey", Reason: "public point is not at offset 57"}
	}

	return nil
}
