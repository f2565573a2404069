// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import "fmt"

// ErrorCode mirrors the small set of synchronous error conditions a
// caller of the settings/control contract can hit. Transport failures
// in GetSamples are returned as the transport's own error value, and
// capture-state polling reports a failure only through its ok flag;
// neither passes the transport's negative byte count on to the caller.
type ErrorCode int

// Error codes surfaced to callers, per the settings store's control
// contract.
const (
	ErrorNone ErrorCode = iota
	ErrorUnsupported
	ErrorConnection
	ErrorParameter
)

func (e ErrorCode) Error() string {
	switch e {
	case ErrorNone:
		return "no error"
	case ErrorUnsupported:
		return "unsupported by this model"
	case ErrorConnection:
		return "not connected"
	case ErrorParameter:
		return "invalid parameter"
	default:
		return fmt.Sprintf("unknown error code %d", int(e))
	}
}
