// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import "fmt"

// Encode renders a command as one CR LF terminated ASCII line.
// Arguments without a wire code yield ErrUnencodable.
func Encode(cmd Command) ([]byte, error) {
	line, err := commandLine(cmd)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(line)+2)
	out = append(out, line...)
	return append(out, CR, LF), nil
}

func commandLine(cmd Command) (string, error) {
	switch c := cmd.(type) {
	case QueryPower:
		return cmdQueryPower, nil

	case QuerySource:
		return cmdQuerySource, nil

	case SetPower:
		word, ok := powerWords[c.Power]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnencodable, c)
		}
		return cmdPower + " " + word, nil

	case SetSource:
		code, ok := c.Source.Code()
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnencodable, c)
		}
		return fmt.Sprintf("%s %02x", cmdSource, code), nil

	case SendKey:
		code, ok := c.Key.Code()
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnencodable, c)
		}
		return fmt.Sprintf("%s %02x", cmdKey, code), nil

	default:
		return "", fmt.Errorf("%w: unsupported command %T", ErrUnencodable, cmd)
	}
}
