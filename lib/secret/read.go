// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// ReadFromPath loads a secret file into a Buffer, or the first line
// of stdin when path is "-". Surrounding whitespace is trimmed; an
// empty secret is an error. The caller must Close the Buffer.
func ReadFromPath(path string) (*Buffer, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = readLine(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	defer Zero(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret in %s is empty", path)
	}
	return NewFromBytes(trimmed)
}

func readLine(reader io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return nil, fmt.Errorf("stdin is empty")
	}
	// Scanner reuses its buffer; copy so the caller can zero it.
	return bytes.Clone(scanner.Bytes()), nil
}
