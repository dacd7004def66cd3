// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
)

const (
	ErrCode_UnsupportedSpecKind    = "unsupported-spec-kind"
	ErrCode_InvariantViolation     = "invariant-violation"
	ErrCode_NotMounted             = "not-mounted"
	ErrCode_IllegalInnerTypeChange = "illegal-inner-type-change"
	ErrCode_RootTypeMismatch       = "root-type-mismatch"
	ErrCode_RenderPanic            = "render-panic"
	ErrCode_Target                 = "target"

	// Node.Update got a spec of another type; the parent must replace the node
	ErrCode_ReplaceRequired = "replace-required"
)

// CodedError tags an error with one of the ErrCode_ values.
// The code can be recovered anywhere in a wrapped chain with GetErrorCode.
type CodedError struct {
	Code string
	Err  error
}

func (e CodedError) Error() string {
	return e.Err.Error()
}

func (e CodedError) Unwrap() error {
	return e.Err
}

func MakeCodedError(code string, err error) CodedError {
	return CodedError{Code: code, Err: err}
}

func Errorf(code string, format string, args ...any) error {
	return MakeCodedError(code, fmt.Errorf(format, args...))
}

// GetErrorCode returns the code of the outermost CodedError in the chain, or "".
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

func IsCode(err error, code string) bool {
	return err != nil && GetErrorCode(err) == code
}

func targetErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return MakeCodedError(ErrCode_Target, fmt.Errorf("target %s: %w", op, err))
}

// panicToError converts a recovered value into an error (nil if there was no panic)
func panicToError(code string, debugStr string, recoverVal any) error {
	if recoverVal == nil {
		return nil
	}
	log.Printf("[vdom] [panic] in %s: %v\n", debugStr, recoverVal)
	debug.PrintStack()
	if err, ok := recoverVal.(error); ok {
		return MakeCodedError(code, fmt.Errorf("panic in %s: %w", debugStr, err))
	}
	return Errorf(code, "panic in %s: %v", debugStr, recoverVal)
}

// runHook calls a lifecycle hook, logging (never propagating) any panic
func runHook(debugStr string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[vdom] [panic] in %s (ignored): %v\n", debugStr, r)
			debug.PrintStack()
		}
	}()
	fn()
}
