// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package routecheck

import "errors"

// ErrShutdown holds any errors that may
// have occurred while releasing the resources of a run
type ErrShutdown struct {
	errTransport error
	errTextfile  error
	errMetrics   error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errTransport != nil || e.errTextfile != nil || e.errMetrics != nil
}

func (e ErrShutdown) Error() string {
	return "shutdown failed: " + errors.Join(e.Unwrap()...).Error()
}

func (e ErrShutdown) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.errTransport, e.errTextfile, e.errMetrics} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
