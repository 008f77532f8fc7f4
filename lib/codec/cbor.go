// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// any-typed targets decode to map[string]any so decoded
		// values can be handed to encoding/json unchanged.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Signed payloads must be canonical: a duplicate key would let
		// two encodings of the same claims carry different meanings.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
		// Bounds the work an unauthenticated cookie can cause before
		// its signature is checked.
		MaxArrayElements: 1024,
		MaxMapPairs:      1024,
		MaxNestedLevels:  16,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding: the same value
// always produces the same bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Unknown fields are ignored.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
