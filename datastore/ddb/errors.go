/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/a11yscan/scanstore/storagemodels"
)

var statusByErrorCode = map[string]int{
	"ProvisionedThroughputExceededException": http.StatusTooManyRequests,
	"RequestLimitExceeded":                   http.StatusTooManyRequests,
	"ThrottlingException":                    http.StatusTooManyRequests,
	"ResourceNotFoundException":              http.StatusNotFound,
	"ValidationException":                    http.StatusBadRequest,
	"InternalServerError":                    http.StatusInternalServerError,
	"ServiceUnavailable":                     http.StatusServiceUnavailable,
}

// failedPage converts a rejection from the DynamoDB service into a failed page.
// Errors that never produced a service response are not converted.
func failedPage[T any](err error) (*storagemodels.PageResponse[T], bool) {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return nil, false
	}

	return &storagemodels.PageResponse[T]{
		StatusCode:  statusCode(err, ae),
		Diagnostics: ae.ErrorCode() + ": " + ae.ErrorMessage(),
	}, true
}

// statusCode prefers the error code, since DynamoDB reports throttling as HTTP 400.
func statusCode(err error, ae smithy.APIError) int {
	if code, ok := statusByErrorCode[ae.ErrorCode()]; ok {
		return code
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.ResponseError != nil && re.Response != nil && re.Response.Response != nil {
		return re.HTTPStatusCode()
	}

	if ae.ErrorFault() == smithy.FaultClient {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsRetryableError determines if a DynamoDB error is retryable
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for specific retryable DynamoDB errors
	var pte *types.ProvisionedThroughputExceededException
	var rle *types.RequestLimitExceeded
	var ise *types.InternalServerError
	if errors.As(err, &pte) || errors.As(err, &rle) || errors.As(err, &ise) {
		return true
	}

	// Check for AWS SDK retryable errors
	var retryable interface{ RetryableError() bool }
	if errors.As(err, &retryable) {
		return retryable.RetryableError()
	}

	return false
}
